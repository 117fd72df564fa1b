package collection_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildbid/internal/collection"
	"buildbid/internal/model"
)

var contractorNames = []string{
	"Casey Builders", "Morgan Electric", "Riley Plumbing", "Avery Roofing", "Jordan Concrete",
	"Taylor Drywall", "Quinn HVAC", "Rowan Masonry", "Emerson Framing", "Skyler Glazing",
}

func userID(u model.User) string { return u.ID.String() }

func userFields(u model.User) []string {
	return []string{u.Name, u.Email, u.Company, u.Specialty}
}

func tenContractors() []model.User {
	users := make([]model.User, len(contractorNames))
	for i, name := range contractorNames {
		users[i] = model.User{
			ID:    uuid.New(),
			Name:  name,
			Email: fmt.Sprintf("c%d@example.com", i),
			Role:  model.RoleContractor,
		}
	}
	return users
}

func loaded(t *testing.T, users []model.User) *collection.Collection[model.User] {
	t.Helper()
	c := collection.New(func(ctx context.Context) ([]model.User, error) {
		return users, nil
	}, userID, userFields)
	require.NoError(t, c.Load(context.Background()))
	return c
}

func TestLoad(t *testing.T) {
	users := tenContractors()
	c := loaded(t, users)

	assert.False(t, c.Loading())
	assert.NoError(t, c.Err())
	assert.Equal(t, users, c.Items())
	assert.Equal(t, 10, c.Len())
}

func TestLoadFailureKeepsItems(t *testing.T) {
	users := tenContractors()
	fail := false
	boom := errors.New("boom")
	c := collection.New(func(ctx context.Context) ([]model.User, error) {
		if fail {
			return nil, boom
		}
		return users, nil
	}, userID, userFields)
	require.NoError(t, c.Load(context.Background()))

	fail = true
	assert.ErrorIs(t, c.Load(context.Background()), boom)
	assert.ErrorIs(t, c.Err(), boom)
	assert.False(t, c.Loading())
	assert.Len(t, c.Items(), 10)
}

func TestLoadingFlagDuringFetch(t *testing.T) {
	var c *collection.Collection[model.User]
	var during bool
	c = collection.New(func(ctx context.Context) ([]model.User, error) {
		during = c.Loading()
		return nil, nil
	}, userID, userFields)

	require.NoError(t, c.Load(context.Background()))
	assert.True(t, during)
	assert.False(t, c.Loading())
}

func TestItemsReturnsCopy(t *testing.T) {
	c := loaded(t, tenContractors())
	items := c.Items()
	items[0].Name = "changed"
	assert.Equal(t, "Casey Builders", c.Items()[0].Name)
}

func TestFilterTenContractors(t *testing.T) {
	c := loaded(t, tenContractors())

	got := c.Filter("ROO")
	require.Len(t, got, 1)
	assert.Equal(t, "Avery Roofing", got[0].Name)

	got = c.Filter("  ING ")
	names := make([]string, len(got))
	for i, u := range got {
		names[i] = u.Name
	}
	assert.Equal(t, []string{"Riley Plumbing", "Avery Roofing", "Emerson Framing", "Skyler Glazing"}, names)

	assert.Len(t, c.Filter(""), 10)
	assert.Empty(t, c.Filter("zzz"))
}

func TestFilterWithoutSearchableFields(t *testing.T) {
	c := collection.New(func(ctx context.Context) ([]model.User, error) {
		return tenContractors(), nil
	}, userID, nil)
	require.NoError(t, c.Load(context.Background()))

	assert.Len(t, c.Filter(""), 10)
	assert.Empty(t, c.Filter("casey"))
}

func TestProperty_FilterMatchesBruteForce(t *testing.T) {
	users := tenContractors()
	c := loaded(t, users)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("filter returns exactly the case-insensitive substring matches in order", prop.ForAll(
		func(pick, start, length int, upper bool) bool {
			name := contractorNames[pick]
			if start >= len(name) {
				start = len(name) - 1
			}
			end := start + length
			if end > len(name) {
				end = len(name)
			}
			q := name[start:end]
			if upper {
				q = strings.ToUpper(q)
			}

			var want []string
			needle := strings.ToLower(strings.TrimSpace(q))
			for _, u := range users {
				if needle == "" || strings.Contains(strings.ToLower(u.Name), needle) ||
					strings.Contains(strings.ToLower(u.Email), needle) {
					want = append(want, u.ID.String())
				}
			}

			var got []string
			for _, u := range c.Filter(q) {
				got = append(got, u.ID.String())
			}
			if len(got) != len(want) {
				return false
			}
			for i := range got {
				if got[i] != want[i] {
					return false
				}
			}
			return len(got) >= 1
		},
		gen.IntRange(0, len(contractorNames)-1),
		gen.IntRange(0, 20),
		gen.IntRange(1, 6),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestCreateAppendsOnSuccess(t *testing.T) {
	c := collection.New(func(ctx context.Context) ([]model.Comment, error) {
		return nil, nil
	}, func(cm model.Comment) string { return cm.ID.String() }, func(cm model.Comment) []string {
		return []string{cm.Content}
	})
	require.NoError(t, c.Load(context.Background()))

	for i := 0; i < 3; i++ {
		_, err := c.Create(context.Background(), func(ctx context.Context) (model.Comment, error) {
			return model.Comment{ID: uuid.New(), Content: fmt.Sprintf("comment %d", i)}, nil
		})
		require.NoError(t, err)
	}

	boom := errors.New("offline")
	_, err := c.Create(context.Background(), func(ctx context.Context) (model.Comment, error) {
		return model.Comment{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, c.Err(), boom)

	items := c.Items()
	require.Len(t, items, 3)
	for i, cm := range items {
		assert.Equal(t, fmt.Sprintf("comment %d", i), cm.Content)
	}
}

func TestUpdateConfirmThenMutate(t *testing.T) {
	users := tenContractors()
	c := loaded(t, users)
	target := users[2]

	boom := errors.New("500")
	_, err := c.Update(context.Background(), target.ID.String(), func(ctx context.Context, cur model.User) (model.User, error) {
		return model.User{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "Riley Plumbing", c.Items()[2].Name)

	updated, err := c.Update(context.Background(), target.ID.String(), func(ctx context.Context, cur model.User) (model.User, error) {
		cur.Name = "Riley & Sons"
		return cur, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Riley & Sons", updated.Name)
	assert.Equal(t, "Riley & Sons", c.Items()[2].Name)
	assert.NoError(t, c.Err())

	_, err = c.Update(context.Background(), uuid.NewString(), func(ctx context.Context, cur model.User) (model.User, error) {
		t.Fatal("remote update must not run for an unknown id")
		return cur, nil
	})
	assert.ErrorIs(t, err, collection.ErrItemNotFound)
}

func TestRemoveConfirmThenMutate(t *testing.T) {
	users := tenContractors()
	c := loaded(t, users)

	err := c.Remove(context.Background(), users[0].ID.String(), func(ctx context.Context, cur model.User) error {
		return errors.New("forbidden")
	})
	require.Error(t, err)
	assert.Equal(t, 10, c.Len())

	require.NoError(t, c.Remove(context.Background(), users[0].ID.String(), func(ctx context.Context, cur model.User) error {
		assert.Equal(t, users[0].ID, cur.ID)
		return nil
	}))
	assert.Equal(t, 9, c.Len())
	assert.Equal(t, users[1].ID, c.Items()[0].ID)

	err = c.Remove(context.Background(), users[0].ID.String(), func(ctx context.Context, cur model.User) error { return nil })
	assert.ErrorIs(t, err, collection.ErrItemNotFound)
}
