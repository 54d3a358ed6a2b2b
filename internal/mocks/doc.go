// Package mocks provides shared mock implementations for tests.
//
// MockUserStore is a testify mock for store.UserStore, set up with On(...)
// expectations. MockTokenValidator uses function fields with fixed
// defaults for the common cases:
//
//	v := &mocks.MockTokenValidator{Err: auth.ErrExpiredToken}
//	router := api.NewRouter(api.WithTokenValidator(v))
package mocks
