package ui

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/phrazzld/users-qa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// fakeDriver records calls and answers Evaluate from canned results keyed
// by a fragment of the script.
type fakeDriver struct {
	calls    []string
	values   map[string]string
	texts    map[string]string
	scripts  map[string][]any
	clickErr map[string]error
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		values:   map[string]string{},
		texts:    map[string]string{},
		scripts:  map[string][]any{},
		clickErr: map[string]error{},
	}
}

func (f *fakeDriver) Navigate(_ context.Context, url string) error {
	f.calls = append(f.calls, "navigate "+url)
	return nil
}

func (f *fakeDriver) Click(_ context.Context, selector string) error {
	f.calls = append(f.calls, "click "+selector)
	return f.clickErr[selector]
}

func (f *fakeDriver) SetValue(_ context.Context, selector, value string) error {
	f.calls = append(f.calls, "set "+selector)
	f.values[selector] = value
	return nil
}

func (f *fakeDriver) Text(_ context.Context, selector string) (string, error) {
	return f.texts[selector], nil
}

// Evaluate pops the next canned result for the first key found in script.
// The last result repeats.
func (f *fakeDriver) Evaluate(_ context.Context, script string, out any) error {
	for key, results := range f.scripts {
		if !strings.Contains(script, key) || len(results) == 0 {
			continue
		}
		result := results[0]
		if len(results) > 1 {
			f.scripts[key] = results[1:]
		}
		data, err := json.Marshal(result)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, out)
	}
	return errors.New("unexpected script")
}

func (f *fakeDriver) ScrollIntoView(_ context.Context, selector string) error {
	f.calls = append(f.calls, "scroll "+selector)
	return nil
}

func row(key, id, username string) map[string]any {
	return map[string]any{
		"key": key, "index": "", "id": id, "name": "User " + id, "username": username,
		"email": username + "@example.com", "phone": "12345678", "buttons": 2,
	}
}

const rowsKey = "MuiDataGrid-row"

func TestAddUserPageFillsDefinedFields(t *testing.T) {
	d := newFakeDriver()
	page := NewAddUserPage(d, "http://app.local/", nil)
	ctx := context.Background()

	require.NoError(t, page.Navigate(ctx))
	require.NoError(t, page.Fill(ctx, domain.UserRecord{
		Name:  ldvalue.NewOptionalString("John"),
		Email: ldvalue.NewOptionalString("wick@wick.com"),
	}))
	require.NoError(t, page.Save(ctx))

	assert.Equal(t, []string{
		"navigate http://app.local/add",
		"set " + nameInput,
		"set " + emailInput,
		"click " + addUserButton,
	}, d.calls)
	assert.Equal(t, "wick@wick.com", d.values[emailInput])
}

func TestAddUserPageCancel(t *testing.T) {
	d := newFakeDriver()
	page := NewAddUserPage(d, "http://app.local", nil)

	require.NoError(t, page.Cancel(context.Background()))

	assert.Equal(t, []string{"click " + cancelButton}, d.calls)
}

func TestUpdateUserPageSkipsUndefinedFields(t *testing.T) {
	d := newFakeDriver()
	page := NewUpdateUserPage(d, "http://app.local", nil)
	ctx := context.Background()
	target := domain.UserRow{ID: "9", Edit: domain.NewHandle("#edit-9")}

	require.NoError(t, page.Open(ctx, target))
	require.NoError(t, page.Edit(ctx, domain.UserRecord{Phone: ldvalue.NewOptionalString("")}))
	require.NoError(t, page.Update(ctx))

	assert.Equal(t, []string{"click #edit-9", "set " + phoneInput, "click " + updateUserButton}, d.calls)
	assert.Equal(t, "", d.values[phoneInput], "a defined empty string is typed")
}

func TestUpdateUserPageOpenWithoutHandle(t *testing.T) {
	page := NewUpdateUserPage(newFakeDriver(), "http://app.local", nil)

	assert.ErrorIs(t, page.Open(context.Background(), domain.UserRow{}), ErrElementNotFound)
}

func TestTitle(t *testing.T) {
	d := newFakeDriver()
	d.texts[pageTitle] = "Add User"

	title, err := NewAddUserPage(d, "http://app.local", nil).Title(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Add User", title)
}

func TestHeaders(t *testing.T) {
	d := newFakeDriver()
	d.scripts["columnheader"] = []any{[]map[string]any{
		{"field": "id", "title": "ID", "sort": true, "menu": true},
		{"field": "actions", "title": "Actions", "sort": false, "menu": false},
	}}

	headers, err := NewUsersPage(d, "http://app.local", nil).Headers(context.Background())

	require.NoError(t, err)
	require.Len(t, headers, 2)
	assert.Equal(t, "ID", headers[0].Title)
	assert.Contains(t, headers[0].Menu.Selector(), `data-field="id"`)
	assert.False(t, headers[0].Sort.IsZero())
	assert.True(t, headers[1].Menu.IsZero())
}

func TestPickMenuOption(t *testing.T) {
	d := newFakeDriver()
	d.scripts["columnheader"] = []any{[]map[string]any{{"field": "id", "title": "ID", "sort": true, "menu": true}}}
	d.scripts["menuitem"] = []any{[]map[string]any{
		{"text": "Unsort", "visible": true},
		{"text": "Sort by ASC", "visible": true},
		{"text": "Sort by DESC", "visible": true},
	}}
	page := NewUsersPage(d, "http://app.local", nil)

	require.NoError(t, page.PickMenuOption(context.Background(), "ID", "Sort by DESC"))

	require.Len(t, d.calls, 2)
	assert.Contains(t, d.calls[0], `button[aria-label='Menu']`)
	assert.Equal(t, "click "+menuItems+":nth-of-type(3)", d.calls[1])
}

func TestPickMenuOptionErrors(t *testing.T) {
	tests := []struct {
		name  string
		items []map[string]any
		col   string
	}{
		{"unknown column", nil, "Nope"},
		{"no visible options", []map[string]any{{"text": "Sort by DESC", "visible": false}}, "ID"},
		{"unknown option", []map[string]any{{"text": "Sort by ASC", "visible": true}}, "ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newFakeDriver()
			d.scripts["columnheader"] = []any{[]map[string]any{{"field": "id", "title": "ID", "sort": true, "menu": true}}}
			d.scripts["menuitem"] = []any{tt.items}

			err := NewUsersPage(d, "http://app.local", nil).PickMenuOption(context.Background(), tt.col, "Sort by DESC")

			assert.ErrorIs(t, err, ErrElementNotFound)
		})
	}
}

func TestRowsScrollsUntilNoNewRows(t *testing.T) {
	d := newFakeDriver()
	d.scripts[rowsKey] = []any{
		[]map[string]any{row("1", "1", "a"), row("2", "2", "b")},
		[]map[string]any{row("2", "2", "b"), row("3", "3", "c")},
		[]map[string]any{row("2", "2", "b"), row("3", "3", "c")},
		[]map[string]any{row("2", "2", "b"), row("3", "3", "c")},
	}
	page := NewUsersPage(d, "http://app.local", nil)

	rows, err := page.Rows(context.Background(), "50")

	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{rows[0].ID, rows[1].ID, rows[2].ID})
	assert.Equal(t, `[role="row"].MuiDataGrid-row[data-id="3"] div[role="cell"][data-field="actions"] > button:nth-of-type(2)`, rows[2].Remove.Selector())
	assert.Contains(t, d.calls, `click ul[role="listbox"] li[role="option"][data-value="50"]`)
}

func TestRowsWithUsername(t *testing.T) {
	d := newFakeDriver()
	d.scripts[rowsKey] = []any{[]map[string]any{row("1", "1", "jw"), row("2", "2", "other"), row("3", "3", "jw")}}
	page := NewUsersPage(d, "http://app.local", nil)

	rows, err := page.RowsWithUsername(context.Background(), "jw")

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0].ID)
	assert.Equal(t, "3", rows[1].ID)
}

func TestFirstRow(t *testing.T) {
	d := newFakeDriver()
	d.scripts[rowsKey] = []any{[]map[string]any{}}
	page := NewUsersPage(d, "http://app.local", nil)

	_, err := page.FirstRow(context.Background())
	assert.ErrorIs(t, err, ErrElementNotFound)

	d.scripts[rowsKey] = []any{[]map[string]any{row("8", "8", "x"), row("7", "7", "y")}}
	first, err := page.FirstRow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "8", first.ID)
	assert.False(t, first.Edit.IsZero())
}

func TestRowFallsBackToRowIndex(t *testing.T) {
	r := scrapedRow{Index: "4", ID: "4", Buttons: 1}.toRow()

	assert.Contains(t, r.Edit.Selector(), `[aria-rowindex="4"]`)
	assert.True(t, r.Remove.IsZero())
}

func TestRemove(t *testing.T) {
	d := newFakeDriver()
	page := NewUsersPage(d, "http://app.local", nil)

	require.NoError(t, page.Remove(context.Background(), domain.UserRow{ID: "1", Remove: domain.NewHandle("#rm-1")}))
	require.NoError(t, page.Remove(context.Background(), domain.UserRow{ID: "2"}))

	assert.Equal(t, []string{"click #rm-1", "click " + removeButton}, d.calls)
}

func TestRowsPerPageLimit(t *testing.T) {
	n, err := RowsPerPageLimit("100")
	require.NoError(t, err)
	assert.Equal(t, 100, n)

	_, err = RowsPerPageLimit("all")
	assert.Error(t, err)
}
