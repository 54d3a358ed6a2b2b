// Package store defines the persistence interface of the sandbox Users API
// and an in-memory implementation of it.
package store
