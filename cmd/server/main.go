// Package main provides the entry point for the waxcritic server application.
package main

import (
	"log"
	"os"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"

	"github.com/manlikeabro/waxcritic/internal/pbext/albums"
	"github.com/manlikeabro/waxcritic/internal/pbext/catalog"
	"github.com/manlikeabro/waxcritic/internal/pbext/dashboard"
	"github.com/manlikeabro/waxcritic/internal/pbext/reviews"
	"github.com/manlikeabro/waxcritic/internal/pbext/spotifyauth"

	// Import migrations to register them
	_ "github.com/manlikeabro/waxcritic/migrations"
)

func main() {
	app := pocketbase.New()

	// Register `migrate` sub-command so we can run `go run ./cmd/server migrate up`.
	isGoRun := strings.HasPrefix(os.Args[0], os.TempDir())
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: isGoRun, // Dev: auto-generate migrations when using Admin UI
	})

	// Feature route groups and hooks. Artist/album/review CRUD itself is
	// served by the collection record API with the rules set in the
	// migrations; these packages add everything with custom logic.
	spotifyauth.Register(app)
	catalog.Register(app)
	reviews.Register(app)
	albums.Register(app)
	dashboard.Register(app)

	// Serve (defaults to :8090) – production port defined via ENV PORT.
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
