// Package api is the sandbox Users API: an in-process implementation of the
// /user/ REST contract the harness tests against. It lets the scenarios and
// the client tests run without a shared remote fixture.
package api
