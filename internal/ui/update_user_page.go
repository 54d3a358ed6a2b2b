package ui

import (
	"context"
	"log/slog"

	"github.com/phrazzld/users-qa/internal/domain"
)

const updateUserButton = "//button[normalize-space(.)='Update User']"

// UpdateUserPage is the edit form opened from a row's Edit button.
type UpdateUserPage struct {
	basePage
}

// NewUpdateUserPage returns the page for the app at baseURL.
func NewUpdateUserPage(driver Driver, baseURL string, l *slog.Logger) *UpdateUserPage {
	return &UpdateUserPage{basePage: newBasePage(driver, baseURL, l)}
}

// Open clicks the Edit button of row.
func (p *UpdateUserPage) Open(ctx context.Context, row domain.UserRow) error {
	if row.Edit.IsZero() {
		return ErrElementNotFound
	}
	return p.driver.Click(ctx, row.Edit.Selector())
}

// Edit replaces the defined fields of changes. Undefined fields keep their
// current value.
func (p *UpdateUserPage) Edit(ctx context.Context, changes domain.UserRecord) error {
	p.log(ctx).Info("updating user details", "changes", changes.String())
	return p.fill(ctx, changes)
}

// Update submits the form.
func (p *UpdateUserPage) Update(ctx context.Context) error {
	p.log(ctx).Info("update user")
	return p.driver.Click(ctx, updateUserButton)
}
