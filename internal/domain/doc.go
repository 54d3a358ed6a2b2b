// Package domain contains the user representations the harness works with:
// generated test data (UserRecord), records returned by the REST API (User)
// and rows scraped from the users grid (UserRow). All three expose their
// values through the Fields interface so they can be reconciled against
// each other field by field.
package domain
