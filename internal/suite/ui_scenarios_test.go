package suite_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/phrazzld/users-qa/internal/suite"
	"github.com/phrazzld/users-qa/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type appUser struct {
	id                           int
	name, username, email, phone string
}

// fakeApp is a tiny in-memory version of the users web app. It understands
// the selectors and scripts the page objects use and keeps its rows across
// browser sessions.
type fakeApp struct {
	users       []appUser
	nextID      int
	form        map[string]string
	editing     int
	rowsPerPage int
	sessions    int
}

var _ ui.Driver = (*fakeApp)(nil)

var dataID = regexp.MustCompile(`data-id="(\d+)"`)

func newFakeApp(seed ...appUser) *fakeApp {
	a := &fakeApp{form: map[string]string{}, rowsPerPage: 25, nextID: 1}
	for _, u := range seed {
		u.id = a.nextID
		a.nextID++
		a.users = append(a.users, u)
	}
	return a
}

func (a *fakeApp) open(context.Context) (ui.Driver, func(), error) {
	a.sessions++
	return a, func() {}, nil
}

func (a *fakeApp) Navigate(_ context.Context, url string) error {
	a.form = map[string]string{}
	a.editing = 0
	return nil
}

func (a *fakeApp) find(id int) int {
	for i, u := range a.users {
		if u.id == id {
			return i
		}
	}
	return -1
}

func (a *fakeApp) fromForm(u appUser) appUser {
	set := func(dst *string, field string) {
		if v, ok := a.form[fmt.Sprintf("input[name='%s']", field)]; ok {
			*dst = v
		}
	}
	set(&u.name, "name")
	set(&u.username, "username")
	set(&u.email, "email")
	set(&u.phone, "phone")
	return u
}

func (a *fakeApp) Click(_ context.Context, selector string) error {
	switch {
	case strings.Contains(selector, "'Add User'"):
		u := a.fromForm(appUser{id: a.nextID})
		a.nextID++
		a.users = append(a.users, u)
	case strings.Contains(selector, "'Update User'"):
		if i := a.find(a.editing); i >= 0 {
			a.users[i] = a.fromForm(a.users[i])
		}
	case strings.Contains(selector, "'Cancel'"):
		a.form = map[string]string{}
		a.editing = 0
	case strings.Contains(selector, `data-field="actions"`):
		m := dataID.FindStringSubmatch(selector)
		if m == nil {
			return errors.New("row button without data-id")
		}
		id, _ := strconv.Atoi(m[1])
		i := a.find(id)
		if i < 0 {
			return ui.ErrElementNotFound
		}
		if strings.HasSuffix(selector, "nth-of-type(2)") {
			a.users = append(a.users[:i], a.users[i+1:]...)
		} else {
			a.editing = id
		}
	case strings.Contains(selector, `li[role="option"]`):
		m := regexp.MustCompile(`data-value="(\d+)"`).FindStringSubmatch(selector)
		if m != nil {
			a.rowsPerPage, _ = strconv.Atoi(m[1])
		}
	}
	return nil
}

func (a *fakeApp) SetValue(_ context.Context, selector, value string) error {
	a.form[selector] = value
	return nil
}

func (a *fakeApp) Text(context.Context, string) (string, error) {
	return "", nil
}

func (a *fakeApp) ScrollIntoView(context.Context, string) error {
	return nil
}

func (a *fakeApp) Evaluate(_ context.Context, script string, out any) error {
	var result any
	switch {
	case strings.Contains(script, "columnheader"):
		result = []map[string]any{{"field": "id", "title": "ID", "sort": true, "menu": true}}
	case strings.Contains(script, "menuitem"):
		result = []map[string]any{{"text": "Sort by ASC", "visible": true}, {"text": "Sort by DESC", "visible": true}}
	case strings.Contains(script, "MuiDataGrid-row"):
		users := append([]appUser(nil), a.users...)
		sort.Slice(users, func(i, j int) bool { return users[i].id > users[j].id })
		if len(users) > a.rowsPerPage {
			users = users[:a.rowsPerPage]
		}
		rows := make([]map[string]any, 0, len(users))
		for _, u := range users {
			id := strconv.Itoa(u.id)
			rows = append(rows, map[string]any{
				"key": id, "id": id, "name": u.name, "username": u.username,
				"email": u.email, "phone": u.phone, "buttons": 2,
			})
		}
		result = rows
	default:
		return errors.New("unexpected script")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func TestUIScenariosAgainstFakeApp(t *testing.T) {
	app := newFakeApp(
		appUser{name: "Leanne", username: "bret", email: "leanne@april.biz", phone: "17707368031"},
		appUser{name: "Ervin", username: "antonette", email: "ervin@melissa.tv", phone: "0106926593"},
	)
	cfg := testConfig("http://api.local")
	cfg.UI.BaseURL = "http://app.local"

	var filters suite.RegexFilters
	require.NoError(t, filters.MustMatch.Set("^ui$"))

	s, err := suite.New(cfg, suite.WithDriverFactory(app.open), suite.WithSeed(7))
	require.NoError(t, err)
	results := s.Run(context.Background(), filters.AsFilter, nil)

	require.True(t, results.OK(), failureText(results))
	names := ids(results.Tests)
	for _, want := range []string{
		"ui/create_new_user",
		"ui/cancel_user_creation",
		"ui/rows_per_page/50",
		"ui/user_can_be_updated",
		"ui/user_cancel_update",
		"ui/users_unique_by_details",
	} {
		assert.Contains(t, names, want)
	}
	assert.Equal(t, 8, app.sessions, "one browser session per scenario")
	require.Len(t, app.users, 2, "rows added by scenarios are removed")
	assert.Equal(t, "John", app.users[1].name)
	assert.Equal(t, "wick@wick.com", app.users[1].email)
	assert.Equal(t, "antonette", app.users[1].username)
}

func TestUIScenariosReportMissingRows(t *testing.T) {
	app := newFakeApp()
	cfg := testConfig("http://api.local")
	cfg.UI.BaseURL = "http://app.local"

	var filters suite.RegexFilters
	require.NoError(t, filters.MustMatch.Set("ui/cancel_user_creation"))

	s, err := suite.New(cfg, suite.WithDriverFactory(app.open))
	require.NoError(t, err)
	results := s.Run(context.Background(), filters.AsFilter, nil)

	require.Len(t, results.Failures, 1)
	assert.Equal(t, "ui/cancel_user_creation", results.Failures[0].TestID.String())
	assert.ErrorContains(t, results.Failures[0].Errors[0], "no rows in grid")
}

// interruptingApp cancels the run right after a user is saved. Like a real
// browser session, it refuses work under a done context.
type interruptingApp struct {
	*fakeApp
	cancel context.CancelFunc
}

func (a interruptingApp) open(context.Context) (ui.Driver, func(), error) {
	a.sessions++
	return a, func() {}, nil
}

func (a interruptingApp) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.fakeApp.Navigate(ctx, url)
}

func (a interruptingApp) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := a.fakeApp.Click(ctx, selector)
	if strings.Contains(selector, "'Add User'") {
		a.cancel()
	}
	return err
}

func (a interruptingApp) Evaluate(ctx context.Context, script string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.fakeApp.Evaluate(ctx, script, out)
}

func TestUIRowsAreRemovedAfterInterrupt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app := interruptingApp{
		fakeApp: newFakeApp(appUser{name: "Leanne", username: "bret", email: "leanne@april.biz", phone: "17707368031"}),
		cancel:  cancel,
	}
	cfg := testConfig("http://api.local")
	cfg.UI.BaseURL = "http://app.local"

	var filters suite.RegexFilters
	require.NoError(t, filters.MustMatch.Set("ui/create_new_user"))

	s, err := suite.New(cfg, suite.WithDriverFactory(app.open), suite.WithSeed(3))
	require.NoError(t, err)
	results := s.Run(ctx, filters.AsFilter, nil)

	require.Len(t, results.Failures, 1, "the scenario stops once the run is canceled")
	assert.ErrorContains(t, results.Failures[0].Errors[0], context.Canceled.Error())
	require.Len(t, app.users, 1, "the saved row is removed anyway")
	assert.Equal(t, "bret", app.users[0].username)
}
