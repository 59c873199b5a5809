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
			Name: "activity_logs",
			Type: models.CollectionTypeBase,
			Schema: schema.NewSchema(
				&schema.SchemaField{
					Name:     "level",
					Type:     schema.FieldTypeSelect,
					Required: true,
					Options: &schema.SelectOptions{
						MaxSelect: 1,
						Values:    []string{"info", "warn", "error"},
					},
				},
				&schema.SchemaField{
					Name:     "message",
					Type:     schema.FieldTypeText,
					Required: true,
					Options: &schema.TextOptions{
						Max: intPtr(1024),
					},
				},
				&schema.SchemaField{
					Name:     "source",
					Type:     schema.FieldTypeSelect,
					Required: true,
					Options: &schema.SelectOptions{
						MaxSelect: 1,
						Values:    []string{"spotify", "reviews", "system"},
					},
				},
			),
			Indexes: []string{
				"CREATE INDEX idx_activity_logs_level ON activity_logs (level)",
				"CREATE INDEX idx_activity_logs_source ON activity_logs (source)",
				"CREATE INDEX idx_activity_logs_created ON activity_logs (created DESC)",
			},
		}

		return dao.SaveCollection(collection)
	}, func(db dbx.Builder) error {
		dao := daos.New(db)

		collection, err := dao.FindCollectionByNameOrId("activity_logs")
		if err != nil {
			return err
		}

		return dao.DeleteCollection(collection)
	})
}
