package migrations

import (
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/daos"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/models"
	"github.com/pocketbase/pocketbase/models/schema"
)

func init() {
	m.Register(func(db dbx.Builder) error {
		dao := daos.New(db)

		users, err := dao.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		// All rules are nil (admin-only): tokens are never exposed over
		// the record API, only the connector reads and writes them.
		collection := &models.Collection{
			Name: "spotify_tokens",
			Type: models.CollectionTypeBase,
			Schema: schema.NewSchema(
				&schema.SchemaField{
					Name:     "user",
					Type:     schema.FieldTypeRelation,
					Required: true,
					Options: &schema.RelationOptions{
						CollectionId:  users.Id,
						CascadeDelete: true,
						MaxSelect:     intPtr(1),
					},
				},
				&schema.SchemaField{
					Name: "access_token",
					Type: schema.FieldTypeText,
				},
				&schema.SchemaField{
					Name: "refresh_token",
					Type: schema.FieldTypeText,
				},
				&schema.SchemaField{
					Name: "token_type",
					Type: schema.FieldTypeText,
				},
				&schema.SchemaField{
					Name: "scope",
					Type: schema.FieldTypeText,
				},
				&schema.SchemaField{
					Name: "expires_at",
					Type: schema.FieldTypeDate,
				},
			),
			Indexes: []string{
				// one token record per user
				"CREATE UNIQUE INDEX idx_spotify_tokens_user ON spotify_tokens (user)",
			},
		}

		return dao.SaveCollection(collection)
	}, func(db dbx.Builder) error {
		dao := daos.New(db)

		collection, err := dao.FindCollectionByNameOrId("spotify_tokens")
		if err != nil {
			return err
		}

		return dao.DeleteCollection(collection)
	})
}
