package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/phrazzld/users-qa/internal/domain"
)

// DefaultRowsPerPage is the grid page size used when reading every row.
const DefaultRowsPerPage = "25"

const (
	gridRow        = `[role="row"].MuiDataGrid-row`
	rowsPerPageBox = `div[role="button"]`
	removeButton   = "//button[normalize-space(.)='Remove']"
	menuItems      = `ul[role="menu"] li[role="menuitem"]`

	// maxScrolls bounds the scroll loop in Rows for grids that never settle.
	maxScrolls = 200
)

const headersScript = `Array.from(document.querySelectorAll("div[role='row'][aria-rowindex='1'] div[role='columnheader']")).map(c => ({
  field: (c.getAttribute("data-field") || "").trim(),
  title: c.innerText.trim(),
  sort: c.querySelector("button[aria-label='Sort']") !== null,
  menu: c.querySelector("button[aria-label='Menu'][aria-haspopup='true']") !== null
}))`

const rowsScript = `Array.from(document.querySelectorAll('[role="row"].MuiDataGrid-row')).map(r => {
  const cell = f => { const c = r.querySelector('div[role="cell"][data-field="' + f + '"]'); return c ? c.innerText.trim() : ""; };
  return {
    key: r.getAttribute("data-id") || "",
    index: r.getAttribute("aria-rowindex") || "",
    id: cell("id"), name: cell("name"), username: cell("username"), email: cell("email"), phone: cell("phone"),
    buttons: r.querySelectorAll('div[role="cell"][data-field="actions"] > button').length
  };
})`

const menuItemsScript = `Array.from(document.querySelectorAll('ul[role="menu"] li[role="menuitem"]')).map(li => ({
  text: li.innerText.trim(),
  visible: li.offsetParent !== null
}))`

type scrapedHeader struct {
	Field string `json:"field"`
	Title string `json:"title"`
	Sort  bool   `json:"sort"`
	Menu  bool   `json:"menu"`
}

type scrapedRow struct {
	Key      string `json:"key"`
	Index    string `json:"index"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Buttons  int    `json:"buttons"`
}

// selector addresses the row on the page, preferring its data-id.
func (r scrapedRow) selector() string {
	if r.Key != "" {
		return fmt.Sprintf(`%s[data-id=%q]`, gridRow, r.Key)
	}
	return fmt.Sprintf(`%s[aria-rowindex=%q]`, gridRow, r.Index)
}

func (r scrapedRow) identity() string {
	if r.Key != "" {
		return r.Key
	}
	return "index:" + r.Index
}

func (r scrapedRow) toRow() domain.UserRow {
	row := domain.UserRow{ID: r.ID, Name: r.Name, Username: r.Username, Email: r.Email, Phone: r.Phone}
	button := func(n int) domain.Handle {
		return domain.NewHandle(fmt.Sprintf(`%s div[role="cell"][data-field="actions"] > button:nth-of-type(%d)`, r.selector(), n))
	}
	if r.Buttons > 0 {
		row.Edit = button(1)
	}
	if r.Buttons > 1 {
		row.Remove = button(2)
	}
	return row
}

type menuItem struct {
	Text    string `json:"text"`
	Visible bool   `json:"visible"`
}

// UsersPage is the users grid.
type UsersPage struct {
	basePage
}

// NewUsersPage returns the page for the app at baseURL.
func NewUsersPage(driver Driver, baseURL string, l *slog.Logger) *UsersPage {
	return &UsersPage{basePage: newBasePage(driver, baseURL, l)}
}

// Navigate opens the grid.
func (p *UsersPage) Navigate(ctx context.Context) error {
	p.log(ctx).Info("navigate to users page")
	return p.navigate(ctx, "all")
}

// Headers returns the grid's column headers with their action buttons.
func (p *UsersPage) Headers(ctx context.Context) ([]domain.ColumnHeader, error) {
	var scraped []scrapedHeader
	if err := p.driver.Evaluate(ctx, headersScript, &scraped); err != nil {
		return nil, err
	}

	headers := make([]domain.ColumnHeader, 0, len(scraped))
	for _, h := range scraped {
		header := domain.ColumnHeader{Field: h.Field, Title: h.Title}
		column := fmt.Sprintf(`div[role='columnheader'][data-field=%q]`, h.Field)
		if h.Sort {
			header.Sort = domain.NewHandle(column + ` button[aria-label='Sort']`)
		}
		if h.Menu {
			header.Menu = domain.NewHandle(column + ` button[aria-label='Menu'][aria-haspopup='true']`)
		}
		headers = append(headers, header)
	}
	return headers, nil
}

// PickMenuOption opens the menu of the column titled column and clicks
// option, for example "Sort by DESC" on "ID".
func (p *UsersPage) PickMenuOption(ctx context.Context, column, option string) error {
	log := p.log(ctx)
	log.Info("selecting column menu option", "column", column, "option", option)

	headers, err := p.Headers(ctx)
	if err != nil {
		return err
	}
	var menu domain.Handle
	for _, h := range headers {
		if h.Title == column {
			menu = h.Menu
			break
		}
	}
	if menu.IsZero() {
		return fmt.Errorf("%w: menu of column %q", ErrElementNotFound, column)
	}
	if err := p.driver.Click(ctx, menu.Selector()); err != nil {
		return err
	}

	var items []menuItem
	if err := p.driver.Evaluate(ctx, menuItemsScript, &items); err != nil {
		return err
	}
	var matches []int
	visible := 0
	for i, item := range items {
		if !item.Visible {
			continue
		}
		visible++
		if item.Text == option {
			matches = append(matches, i)
		}
	}
	switch {
	case visible == 0:
		return fmt.Errorf("%w: menu opened but no option is visible", ErrElementNotFound)
	case len(matches) == 0:
		return fmt.Errorf("%w: menu option %q", ErrElementNotFound, option)
	case len(matches) > 1:
		log.Warn("more than one menu option matched, using the first", "option", option, "matches", len(matches))
	}
	return p.driver.Click(ctx, fmt.Sprintf("%s:nth-of-type(%d)", menuItems, matches[0]+1))
}

// SelectRowsPerPage changes the grid page size.
func (p *UsersPage) SelectRowsPerPage(ctx context.Context, rowsPerPage string) error {
	p.log(ctx).Info("selecting rows per page", "rows_per_page", rowsPerPage)
	if err := p.driver.Click(ctx, rowsPerPageBox); err != nil {
		return err
	}
	return p.driver.Click(ctx, fmt.Sprintf(`ul[role="listbox"] li[role="option"][data-value=%q]`, rowsPerPage))
}

func (p *UsersPage) scrape(ctx context.Context) ([]scrapedRow, error) {
	var rows []scrapedRow
	if err := p.driver.Evaluate(ctx, rowsScript, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Rows sets the page size and returns every row loaded in the grid,
// scrolling until no new rows appear.
func (p *UsersPage) Rows(ctx context.Context, rowsPerPage string) ([]domain.UserRow, error) {
	if err := p.SelectRowsPerPage(ctx, rowsPerPage); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var result []domain.UserRow
	for i := 0; i < maxScrolls; i++ {
		rows, err := p.scrape(ctx)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}
		for _, r := range rows {
			if seen[r.identity()] {
				continue
			}
			seen[r.identity()] = true
			result = append(result, r.toRow())
		}

		if err := p.driver.ScrollIntoView(ctx, rows[len(rows)-1].selector()); err != nil {
			return nil, err
		}
		after, err := p.scrape(ctx)
		if err != nil {
			return nil, err
		}
		if len(after) == 0 || seen[after[len(after)-1].identity()] {
			break
		}
	}
	p.log(ctx).Debug("read grid rows", "count", len(result))
	return result, nil
}

// FirstRow returns the first visible row.
func (p *UsersPage) FirstRow(ctx context.Context) (domain.UserRow, error) {
	rows, err := p.scrape(ctx)
	if err != nil {
		return domain.UserRow{}, err
	}
	if len(rows) == 0 {
		return domain.UserRow{}, fmt.Errorf("%w: no rows in grid", ErrElementNotFound)
	}
	return rows[0].toRow(), nil
}

// RowsWithUsername returns the rows whose username equals username.
func (p *UsersPage) RowsWithUsername(ctx context.Context, username string) ([]domain.UserRow, error) {
	p.log(ctx).Info("filter grid by username", "username", username)
	rows, err := p.Rows(ctx, DefaultRowsPerPage)
	if err != nil {
		return nil, err
	}
	var matching []domain.UserRow
	for _, r := range rows {
		if r.Username == username {
			matching = append(matching, r)
		}
	}
	return matching, nil
}

// Remove clicks the Remove button of row.
func (p *UsersPage) Remove(ctx context.Context, row domain.UserRow) error {
	p.log(ctx).Info("remove user", "id", row.ID)
	if row.Remove.IsZero() {
		return p.driver.Click(ctx, removeButton)
	}
	return p.driver.Click(ctx, row.Remove.Selector())
}

// RowsPerPageLimit parses a page size option.
func RowsPerPageLimit(rowsPerPage string) (int, error) {
	n, err := strconv.Atoi(rowsPerPage)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid rows per page %q", rowsPerPage)
	}
	return n, nil
}
