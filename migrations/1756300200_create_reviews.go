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

		albums, err := dao.FindCollectionByNameOrId("albums")
		if err != nil {
			return err
		}

		users, err := dao.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection := &models.Collection{
			Name: "reviews",
			Type: models.CollectionTypeBase,
			Schema: schema.NewSchema(
				&schema.SchemaField{
					Name:     "album",
					Type:     schema.FieldTypeRelation,
					Required: true,
					Options: &schema.RelationOptions{
						CollectionId:  albums.Id,
						CascadeDelete: true,
						MaxSelect:     intPtr(1),
					},
				},
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
					Name:     "rating",
					Type:     schema.FieldTypeNumber,
					Required: true,
					Options: &schema.NumberOptions{
						Min:       float64Ptr(1),
						Max:       float64Ptr(5),
						NoDecimal: true,
					},
				},
				&schema.SchemaField{
					Name: "comment",
					Type: schema.FieldTypeText,
					Options: &schema.TextOptions{
						Max: intPtr(5000),
					},
				},
			),
			// Reads are open. Creation goes through the custom
			// /api/reviews route (admin-only here); edits and deletes
			// are restricted to the review owner.
			ListRule:   stringPtr(""),
			ViewRule:   stringPtr(""),
			UpdateRule: stringPtr("@request.auth.id != \"\" && user = @request.auth.id"),
			DeleteRule: stringPtr("@request.auth.id != \"\" && user = @request.auth.id"),
			Indexes: []string{
				"CREATE INDEX idx_reviews_album ON reviews (album)",
				"CREATE INDEX idx_reviews_user ON reviews (user)",
				"CREATE INDEX idx_reviews_created ON reviews (created DESC)",
			},
		}

		return dao.SaveCollection(collection)
	}, func(db dbx.Builder) error {
		dao := daos.New(db)

		collection, err := dao.FindCollectionByNameOrId("reviews")
		if err != nil {
			return err
		}

		return dao.DeleteCollection(collection)
	})
}
