package albums

import (
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/daos"
	"github.com/pocketbase/pocketbase/models"
)

// RegisterHooks registers validation hooks for the albums collection.
// The unique (title, artist) index is the real guarantee; the hook
// exists to turn the constraint violation into a readable error before
// the insert is attempted.
func RegisterHooks(app *pocketbase.PocketBase) {
	app.OnRecordBeforeCreateRequest("albums").Add(func(e *core.RecordCreateEvent) error {
		return checkDuplicatePair(app.Dao(), e.Record)
	})

	app.OnRecordBeforeUpdateRequest("albums").Add(func(e *core.RecordUpdateEvent) error {
		return checkDuplicatePair(app.Dao(), e.Record)
	})
}

func checkDuplicatePair(dao *daos.Dao, record *models.Record) error {
	existing, err := dao.FindFirstRecordByFilter(
		"albums",
		"title = {:title} && artist = {:artist} && id != {:id}",
		dbx.Params{
			"title":  record.GetString("title"),
			"artist": record.GetString("artist"),
			"id":     record.Id,
		},
	)
	if err == nil && existing != nil {
		return apis.NewBadRequestError("This artist already has an album with this title.", nil)
	}
	return nil
}
