package journal

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/sukyun02/2026-autonomous-driving/internal/httputil"
)

// AttachAdminRoutes mounts the journal debug routes under /debug/:
// tailsql/ for live queries, sessions for a JSON listing and backup for a
// gzipped copy of the database.
func (j *Journal) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+filepath.Base(j.path), j.DB, &tailsql.DBOptions{
		Label: "Navigation journal",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("journal/sessions", "Recent navigation sessions (JSON)", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessions, err := j.Sessions(20)
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, sessions)
	}))

	debug.Handle("journal/backup", "Download a gzipped backup of the journal", http.HandlerFunc(j.handleBackup))
	return nil
}

func (j *Journal) handleBackup(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	backupPath := filepath.Join(os.TempDir(), fmt.Sprintf("journal-backup-%d.db", time.Now().UnixNano()))
	if _, err := j.Exec("VACUUM INTO ?", backupPath); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to create backup: %v", err))
		return
	}
	defer func() {
		if err := os.Remove(backupPath); err != nil {
			opsf("failed to remove backup file: %v", err)
		}
	}()

	f, err := os.Open(backupPath)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to open backup: %v", err))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.gz", filepath.Base(backupPath)))
	w.Header().Set("Content-Type", "application/gzip")

	gz := gzip.NewWriter(w)
	defer gz.Close()
	if _, err := io.Copy(gz, f); err != nil {
		opsf("backup copy failed: %v", err)
	}
}
