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

		collection := &models.Collection{
			Name:   "settings",
			Type:   models.CollectionTypeBase,
			System: true, // singleton
			Schema: schema.NewSchema(
				&schema.SchemaField{
					Name: "spotify_client_id",
					Type: schema.FieldTypeText,
				},
				&schema.SchemaField{
					Name: "spotify_client_secret",
					Type: schema.FieldTypeText,
				},
			),
		}

		if err := dao.SaveCollection(collection); err != nil {
			return err
		}

		// Create the singleton record; credentials are filled in via the
		// admin UI or left empty to fall back to environment variables.
		record := models.NewRecord(collection)
		record.SetId("settings")

		return dao.SaveRecord(record)
	}, func(db dbx.Builder) error {
		dao := daos.New(db)

		collection, err := dao.FindCollectionByNameOrId("settings")
		if err != nil {
			return err
		}

		return dao.DeleteCollection(collection)
	})
}
