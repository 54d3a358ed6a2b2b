package suite

import (
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/phrazzld/users-qa/internal/apiclient"
	"github.com/phrazzld/users-qa/internal/check"
	"github.com/phrazzld/users-qa/internal/domain"
	"github.com/phrazzld/users-qa/internal/factory"
	"github.com/phrazzld/users-qa/internal/reconcile"
	"github.com/phrazzld/users-qa/internal/validate"
)

// missingUserID is far above anything a fixture hands out.
const missingUserID = 987654321

const (
	updatedUsername = "updated_username"
	updatedEmail    = "updatedtest@email.com"
)

var rejected = []int{http.StatusBadRequest, http.StatusUnprocessableEntity}

type getCase struct {
	name string
	ids  []string
}

type payloadCase struct {
	name      string
	overrides factory.Overrides
	expected  []int
}

var positiveGetCases = []getCase{
	{name: "all_users"},
	{name: "single_user_by_id", ids: []string{"1"}},
	{name: "multiple_user_by_id", ids: []string{"1", "2", "3"}},
}

var badIDCases = []getCase{
	{name: "bad_id_string", ids: []string{"string"}},
	{name: "bad_id_symbol", ids: []string{"!#"}},
	{name: "bad_id_negative", ids: []string{"-82"}},
	{name: "bad_id_space", ids: []string{" "}},
}

var createCases = []payloadCase{
	{name: "valid_random_user", expected: []int{http.StatusCreated}},
	{name: "invalid_email", overrides: factory.Overrides{"email": factory.Set("not-an-email")}, expected: rejected},
	{name: "empty_username", overrides: factory.Overrides{"username": factory.Set("")}, expected: []int{http.StatusBadRequest}},
	{name: "bad_phone_format", overrides: factory.Overrides{"phone": factory.Set("somestring")}, expected: rejected},
	{name: "null_phone", overrides: factory.Overrides{"phone": factory.Null}, expected: rejected},
	{name: "empty_name", overrides: factory.Overrides{"name": factory.Set(" ")}, expected: []int{http.StatusBadRequest}},
}

var putCases = []payloadCase{
	{name: "valid_full_update", expected: []int{http.StatusOK}},
	{
		name: "valid_partial_update",
		overrides: factory.Overrides{
			"email":    factory.Set("test@email.com"),
			"username": factory.Set("some_username"),
		},
		expected: []int{http.StatusOK},
	},
	{name: "invalid_email", overrides: factory.Overrides{"email": factory.Set("not-an-email")}, expected: rejected},
	{name: "empty_username", overrides: factory.Overrides{"username": factory.Set("")}, expected: []int{http.StatusBadRequest}},
	{name: "empty_name", overrides: factory.Overrides{"name": factory.Set(" ")}, expected: []int{http.StatusBadRequest}},
	{name: "bad_phone", overrides: factory.Overrides{"phone": factory.Set("bad")}, expected: rejected},
}

func (s *Suite) apiScenarios(t *T) {
	t.Run("get", func(t *T) {
		for _, tc := range positiveGetCases {
			t.Run(tc.name, s.withClient(func(t *T, c *apiclient.Client) { s.getUsers(t, c, tc) }))
		}
	})
	t.Run("get_negative", func(t *T) {
		t.Run("user_not_exist", s.withClient(s.getMissingUser))
		for _, tc := range badIDCases {
			t.Run(tc.name, s.withClient(func(t *T, c *apiclient.Client) { s.getBadID(t, c, tc) }))
		}
	})
	t.Run("create", func(t *T) {
		for _, tc := range createCases {
			t.Run(tc.name, s.withClient(func(t *T, c *apiclient.Client) { s.createUser(t, c, tc) }))
		}
	})
	t.Run("update_put", func(t *T) {
		for _, tc := range putCases {
			t.Run(tc.name, s.withClient(func(t *T, c *apiclient.Client) { s.putUser(t, c, tc) }))
		}
	})
	t.Run("delete", func(t *T) {
		t.Run("valid_delete_user", s.withClient(s.deleteUser))
	})
	t.Run("end_to_end", func(t *T) {
		t.Run("valid_end_2_end", s.withClient(s.endToEnd))
	})
}

func idQuery(ids ...string) url.Values {
	if len(ids) == 0 {
		return nil
	}
	return url.Values{"id": ids}
}

// build generates a user with overrides applied. Unknown override names
// stop the scenario.
func (s *Suite) build(t *T, overrides factory.Overrides) domain.UserRecord {
	rec, err := s.factory.Build(overrides)
	t.Require(err)
	return rec
}

// fetch reads the users with the given id and stops the scenario when the
// payload does not decode.
func (s *Suite) fetch(t *T, c *apiclient.Client, id int, expectEmpty bool) validate.Decoded[domain.User] {
	resp, err := c.Get(t.Context(), apiclient.UsersPath, idQuery(strconv.Itoa(id)))
	t.Require(err)
	decoded, report, err := validate.Response[domain.User](resp, validate.Options{
		TimingOptions: s.timing(http.StatusOK),
		ExpectEmpty:   validate.Bool(expectEmpty),
	})
	t.Check(report)
	t.Require(err)
	return decoded
}

// rejectedBody checks a response the API should refuse. The body may be an
// error object, but it must not carry users.
func (s *Suite) rejectedBody(t *T, resp *apiclient.Response, codes []int) {
	decoded, report, err := validate.Response[map[string]any](resp, validate.Options{
		TimingOptions: s.timing(codes...),
	})
	t.Check(report)
	t.Require(err)
	if decoded.IsList {
		r := check.New()
		check.Equal(r, decoded.Len(), 0, "%s %s: rejected request returned users", resp.Method, resp.URL)
		t.Check(r)
	}
}

func (s *Suite) getUsers(t *T, c *apiclient.Client, tc getCase) {
	resp, err := c.Get(t.Context(), apiclient.UsersPath, idQuery(tc.ids...))
	t.Require(err)

	decoded, report, err := validate.Response[domain.User](resp, validate.Options{
		TimingOptions: s.timing(http.StatusOK),
		ExpectEmpty:   validate.Bool(false),
	})
	t.Check(report)
	t.Require(err)
	if len(tc.ids) == 0 {
		return
	}

	var actual []string
	for _, u := range decoded.Items {
		actual = append(actual, strconv.Itoa(u.ID))
	}
	expected := slices.Clone(tc.ids)
	slices.Sort(expected)
	got := slices.Clone(actual)
	slices.Sort(got)
	got = slices.Compact(got)

	r := check.New()
	r.True(slices.Equal(got, expected), "expected ids %v, got %v", tc.ids, actual)
	check.Equal(r, len(actual), len(tc.ids), "number of users returned")
	t.Check(r)
}

func (s *Suite) getMissingUser(t *T, c *apiclient.Client) {
	resp, err := c.Get(t.Context(), apiclient.UsersPath, idQuery(strconv.Itoa(missingUserID)))
	t.Require(err)
	if resp.Status == http.StatusNotFound {
		s.rejectedBody(t, resp, []int{http.StatusNotFound})
		return
	}
	_, report, err := validate.Response[domain.User](resp, validate.Options{
		TimingOptions: s.timing(http.StatusOK, http.StatusNotFound),
		ExpectEmpty:   validate.Bool(true),
	})
	t.Check(report)
	t.Require(err)
}

func (s *Suite) getBadID(t *T, c *apiclient.Client, tc getCase) {
	resp, err := c.Get(t.Context(), apiclient.UsersPath, idQuery(tc.ids...))
	t.Require(err)
	s.rejectedBody(t, resp, rejected)
}

func (s *Suite) createUser(t *T, c *apiclient.Client, tc payloadCase) {
	rec := s.build(t, tc.overrides)
	resp, err := c.Post(t.Context(), apiclient.UsersPath, factory.ToPayload(rec))
	t.Require(err)

	if !slices.Contains(tc.expected, http.StatusCreated) {
		s.rejectedBody(t, resp, tc.expected)
		return
	}
	decoded, report, err := validate.Response[domain.User](resp, validate.Options{
		TimingOptions: s.timing(tc.expected...),
		ExpectEmpty:   validate.Bool(false),
		Many:          validate.One,
	})
	t.Check(report)
	t.Require(err)

	created, _ := decoded.One()
	r := check.New()
	reconcile.AssertMatching(r, rec, created)
	t.Check(r)
}

func (s *Suite) putUser(t *T, c *apiclient.Client, tc payloadCase) {
	created, err := c.CreateUserForTest(t.Context(), factory.ToPayload(s.factory.Generate()))
	t.Require(err)

	rec := s.build(t, tc.overrides)
	resp, err := c.Put(t.Context(), apiclient.UsersPath+strconv.Itoa(created.ID), factory.ToPayload(rec))
	t.Require(err)

	if !slices.Contains(tc.expected, http.StatusOK) {
		s.rejectedBody(t, resp, tc.expected)
		stored, _ := s.fetch(t, c, created.ID, false).One()
		r := check.New()
		reconcile.AssertMatching(r, created, stored)
		t.Check(r)
		return
	}

	decoded, report, err := validate.Response[domain.User](resp, validate.Options{
		TimingOptions: s.timing(tc.expected...),
		ExpectEmpty:   validate.Bool(false),
		Many:          validate.One,
	})
	t.Check(report)
	t.Require(err)

	updated, _ := decoded.One()
	r := check.New()
	check.Equal(r, updated.ID, created.ID, "updated user keeps its id")
	reconcile.AssertMatching(r, rec, updated)
	t.Check(r)
}

func (s *Suite) deleteUser(t *T, c *apiclient.Client) {
	created, err := c.CreateUserForTest(t.Context(), factory.ToPayload(s.factory.Generate()))
	t.Require(err)

	resp, err := c.Delete(t.Context(), apiclient.UsersPath, created.ID)
	t.Require(err)
	r := check.New()
	validate.Timing(r, resp, s.timing(http.StatusOK))
	t.Check(r)

	s.fetch(t, c, created.ID, true)
}

func (s *Suite) endToEnd(t *T, c *apiclient.Client) {
	rec := s.factory.Generate()
	resp, err := c.Post(t.Context(), apiclient.UsersPath, factory.ToPayload(rec))
	t.Require(err)
	decoded, report, err := validate.Response[domain.User](resp, validate.Options{
		TimingOptions: s.timing(http.StatusCreated),
		ExpectEmpty:   validate.Bool(false),
		Many:          validate.One,
	})
	t.Check(report)
	t.Require(err)
	created, _ := decoded.One()

	patch := rec
	t.Require(patch.Set(domain.FieldUsername, factory.Set(updatedUsername)))
	t.Require(patch.Set(domain.FieldEmail, factory.Set(updatedEmail)))
	resp, err = c.Patch(t.Context(), apiclient.UsersPath+strconv.Itoa(created.ID), factory.ToPayload(patch))
	t.Require(err)
	_, report, err = validate.Response[domain.User](resp, validate.Options{
		TimingOptions: s.timing(http.StatusOK),
		ExpectEmpty:   validate.Bool(false),
	})
	t.Check(report)
	t.Require(err)

	after, ok := s.fetch(t, c, created.ID, false).One()
	if !ok {
		t.Fatalf("user %d not returned after update", created.ID)
	}
	t.Check(reconcile.ValidateUpdate(created, after, reconcile.Changes{
		domain.FieldUsername: domain.Value(updatedUsername),
		domain.FieldEmail:    domain.Value(updatedEmail),
	}))

	resp, err = c.Delete(t.Context(), apiclient.UsersPath, created.ID)
	t.Require(err)
	r := check.New()
	validate.Timing(r, resp, s.timing(http.StatusOK))
	t.Check(r)

	s.fetch(t, c, created.ID, true)
}
