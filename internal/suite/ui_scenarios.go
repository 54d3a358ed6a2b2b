package suite

import (
	"context"

	"github.com/phrazzld/users-qa/internal/check"
	"github.com/phrazzld/users-qa/internal/domain"
	"github.com/phrazzld/users-qa/internal/reconcile"
	"github.com/phrazzld/users-qa/internal/ui"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const (
	idColumn   = "ID"
	sortByDesc = "Sort by DESC"
)

var rowsPerPageOptions = []string{"25", "50", "100"}

// pages bundles the page objects of one browser session.
type pages struct {
	users  *ui.UsersPage
	add    *ui.AddUserPage
	update *ui.UpdateUserPage
}

func (s *Suite) uiScenarios(t *T) {
	if s.cfg.UI.BaseURL == "" {
		t.Skip("ui.base_url is not set")
	}
	t.Run("create_new_user", s.withBrowser(s.createNewUser))
	t.Run("cancel_user_creation", s.withBrowser(s.cancelUserCreation))
	t.Run("rows_per_page", func(t *T) {
		for _, rpp := range rowsPerPageOptions {
			t.Run(rpp, s.withBrowser(func(t *T, p pages) { s.pickRowsPerPage(t, p, rpp) }))
		}
	})
	t.Run("user_can_be_updated", s.withBrowser(s.updateUser))
	t.Run("user_cancel_update", s.withBrowser(s.cancelUpdate))
	t.Run("users_unique_by_details", s.withBrowser(s.uniqueByDetails))
}

// withBrowser runs fn in its own browser session, closed when fn returns
// or stops the scenario. The session outlives an interrupt of the run so
// deferred row cleanup can still drive it.
func (s *Suite) withBrowser(fn func(t *T, p pages)) func(*T) {
	return func(t *T) {
		d, closeDriver, err := s.drivers(context.WithoutCancel(t.Context()))
		t.Require(err)
		defer closeDriver()

		base := s.cfg.UI.BaseURL
		fn(t, pages{
			users:  ui.NewUsersPage(d, base, t.Logger()),
			add:    ui.NewAddUserPage(d, base, t.Logger()),
			update: ui.NewUpdateUserPage(d, base, t.Logger()),
		})
	}
}

// newestFirst opens the grid sorted by descending id.
func newestFirst(t *T, p pages) {
	t.Require(p.users.Navigate(t.Context()))
	t.Require(p.users.PickMenuOption(t.Context(), idColumn, sortByDesc))
}

// addUser saves rec through the add user form.
func addUser(t *T, p pages, rec domain.UserRecord) {
	t.Require(p.add.Navigate(t.Context()))
	t.Require(p.add.Fill(t.Context(), rec))
	t.Require(p.add.Save(t.Context()))
}

// removeByUsername deletes the rows created by a scenario. The grid is the
// only way to reach them, so failures are logged and otherwise ignored.
func removeByUsername(t *T, p pages, username string) {
	log := t.Logger()
	ctx := context.WithoutCancel(t.Context())
	if err := p.users.Navigate(ctx); err != nil {
		log.Warn("failed to open grid for cleanup", "error", err)
		return
	}
	rows, err := p.users.RowsWithUsername(ctx, username)
	if err != nil {
		log.Warn("failed to find created rows", "username", username, "error", err)
		return
	}
	for _, row := range rows {
		if err := p.users.Remove(ctx, row); err != nil {
			log.Warn("failed to remove created row", "id", row.ID, "error", err)
		}
	}
}

func (s *Suite) createNewUser(t *T, p pages) {
	rec := s.factory.Generate()
	username := rec.Username.StringValue()
	addUser(t, p, rec)
	defer removeByUsername(t, p, username)

	newestFirst(t, p)
	rows, err := p.users.RowsWithUsername(t.Context(), username)
	t.Require(err)
	if len(rows) == 0 {
		t.Fatalf("no row with username %q after saving", username)
	}
	r := check.New()
	reconcile.AssertMatching(r, rec, rows[0])
	t.Check(r)
}

func (s *Suite) cancelUserCreation(t *T, p pages) {
	newestFirst(t, p)
	before, err := p.users.FirstRow(t.Context())
	t.Require(err)

	t.Require(p.add.Navigate(t.Context()))
	t.Require(p.add.Fill(t.Context(), domain.NewUserRecord("john12", "wick1", "test@test.com", "1234567")))
	t.Require(p.add.Cancel(t.Context()))

	newestFirst(t, p)
	after, err := p.users.FirstRow(t.Context())
	t.Require(err)
	r := check.New()
	reconcile.AssertMatching(r, before, after)
	t.Check(r)
}

func (s *Suite) pickRowsPerPage(t *T, p pages, rowsPerPage string) {
	limit, err := ui.RowsPerPageLimit(rowsPerPage)
	t.Require(err)
	t.Require(p.users.Navigate(t.Context()))
	rows, err := p.users.Rows(t.Context(), rowsPerPage)
	t.Require(err)

	r := check.New()
	r.True(len(rows) <= limit, "rows displayed expected at most %d but got %d", limit, len(rows))
	t.Check(r)
}

// editChanges leaves username and phone undefined so the form keeps them.
func editChanges() domain.UserRecord {
	return domain.UserRecord{
		Name:  ldvalue.NewOptionalString("John"),
		Email: ldvalue.NewOptionalString("wick@wick.com"),
	}
}

func (s *Suite) updateUser(t *T, p pages) {
	newestFirst(t, p)
	before, err := p.users.FirstRow(t.Context())
	t.Require(err)

	changes := editChanges()
	t.Require(p.update.Open(t.Context(), before))
	t.Require(p.update.Edit(t.Context(), changes))
	t.Require(p.update.Update(t.Context()))

	newestFirst(t, p)
	after, err := p.users.FirstRow(t.Context())
	t.Require(err)
	t.Check(reconcile.ValidateUpdate(before, after, reconcile.ChangesFrom(changes)))
}

func (s *Suite) cancelUpdate(t *T, p pages) {
	newestFirst(t, p)
	before, err := p.users.FirstRow(t.Context())
	t.Require(err)

	t.Require(p.update.Open(t.Context(), before))
	t.Require(p.update.Edit(t.Context(), editChanges()))
	t.Require(p.update.Cancel(t.Context()))

	newestFirst(t, p)
	after, err := p.users.FirstRow(t.Context())
	t.Require(err)
	t.Check(reconcile.ValidateUpdate(before, after, reconcile.Changes{}))
}

// uniqueByDetails saves the same details twice and expects two distinct
// rows rather than a merged or rejected one.
func (s *Suite) uniqueByDetails(t *T, p pages) {
	rec := s.factory.Generate()
	username := rec.Username.StringValue()
	addUser(t, p, rec)
	defer removeByUsername(t, p, username)
	addUser(t, p, rec)

	newestFirst(t, p)
	rows, err := p.users.RowsWithUsername(t.Context(), username)
	t.Require(err)
	if len(rows) < 2 {
		t.Fatalf("expected two rows with username %q, got %d", username, len(rows))
	}
	r := check.New()
	check.NotEqual(r, rows[0].ID, rows[1].ID, "rows with identical details have distinct ids")
	reconcile.AssertMatching(r, rows[0], rows[1])
	t.Check(r)
}
