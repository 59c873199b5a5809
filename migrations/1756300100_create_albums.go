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

		artists, err := dao.FindCollectionByNameOrId("artists")
		if err != nil {
			return err
		}

		collection := &models.Collection{
			Name: "albums",
			Type: models.CollectionTypeBase,
			Schema: schema.NewSchema(
				&schema.SchemaField{
					Name:     "title",
					Type:     schema.FieldTypeText,
					Required: true,
					Options: &schema.TextOptions{
						Max: intPtr(200),
					},
				},
				&schema.SchemaField{
					Name:     "artist",
					Type:     schema.FieldTypeRelation,
					Required: true,
					Options: &schema.RelationOptions{
						CollectionId:  artists.Id,
						CascadeDelete: true,
						MaxSelect:     intPtr(1),
					},
				},
				&schema.SchemaField{
					Name:     "release_year",
					Type:     schema.FieldTypeNumber,
					Required: true,
					Options: &schema.NumberOptions{
						Min:       float64Ptr(0),
						NoDecimal: true,
					},
				},
				&schema.SchemaField{
					Name: "genre",
					Type: schema.FieldTypeText,
					Options: &schema.TextOptions{
						Max: intPtr(100),
					},
				},
				&schema.SchemaField{
					Name: "cover_image",
					Type: schema.FieldTypeFile,
					Options: &schema.FileOptions{
						MaxSelect: 1,
						MaxSize:   5242880,
						MimeTypes: []string{"image/jpeg", "image/png", "image/webp"},
					},
				},
				&schema.SchemaField{
					Name: "spotify_id",
					Type: schema.FieldTypeText,
					Options: &schema.TextOptions{
						Max: intPtr(255),
					},
				},
			),
			ListRule: stringPtr(""),
			ViewRule: stringPtr(""),
			Indexes: []string{
				// An artist may not have two albums with the same title
				"CREATE UNIQUE INDEX idx_albums_title_artist ON albums (title, artist)",
				// spotify_id is unique when present; empty means not linked
				"CREATE UNIQUE INDEX idx_albums_spotify_id ON albums (spotify_id) WHERE spotify_id != ''",
			},
		}

		return dao.SaveCollection(collection)
	}, func(db dbx.Builder) error {
		dao := daos.New(db)

		collection, err := dao.FindCollectionByNameOrId("albums")
		if err != nil {
			return err
		}

		return dao.DeleteCollection(collection)
	})
}
