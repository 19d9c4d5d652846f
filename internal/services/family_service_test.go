package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hearthsocial/hearth/internal/models"
	apperrors "github.com/hearthsocial/hearth/pkg/errors"
)

func TestFamilyCreate(t *testing.T) {
	db := newTestDB(t)
	creator := createTestUser(t, db, "creator@example.com")
	families := newTestFamilyService(t, db)

	family, err := families.Create(context.Background(), creator.ID, "The Smiths!")
	require.NoError(t, err)
	require.Equal(t, "The Smiths!", family.Name)
	require.Equal(t, "the-smiths", family.Slug)

	role, err := families.ActiveRole(context.Background(), family.ID, creator.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, role)

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", creator.ID).Error)
	require.NotNil(t, user.ActiveFamilyID)
	require.Equal(t, family.ID, *user.ActiveFamilyID)
}

func TestFamilyCreateDuplicateSlug(t *testing.T) {
	db := newTestDB(t)
	creator := createTestUser(t, db, "creator@example.com")
	families := newTestFamilyService(t, db)

	_, err := families.Create(context.Background(), creator.ID, "Duplicates")
	require.NoError(t, err)

	_, err = families.Create(context.Background(), creator.ID, "duplicates")
	require.ErrorIs(t, err, ErrFamilySlugTaken)
}

func TestFamilyCreateRequiresName(t *testing.T) {
	db := newTestDB(t)
	creator := createTestUser(t, db, "creator@example.com")
	families := newTestFamilyService(t, db)

	_, err := families.Create(context.Background(), creator.ID, "   ")
	require.Error(t, err)
}

func TestFamilyActiveRoleEmptyForOutsiders(t *testing.T) {
	db := newTestDB(t)
	admin := createTestUser(t, db, "admin@example.com")
	outsider := createTestUser(t, db, "outsider@example.com")
	family := createTestFamily(t, db, admin.ID)
	families := newTestFamilyService(t, db)

	role, err := families.ActiveRole(context.Background(), family.ID, outsider.ID)
	require.NoError(t, err)
	require.Empty(t, role)
}

func TestFamilyActiveRoleIgnoresRemovedMembers(t *testing.T) {
	db := newTestDB(t)
	admin := createTestUser(t, db, "admin@example.com")
	removed := createTestUser(t, db, "removed@example.com")
	family := createTestFamily(t, db, admin.ID)
	families := newTestFamilyService(t, db)

	member := &models.FamilyMember{
		FamilyID: family.ID,
		UserID:   removed.ID,
		Role:     models.RoleMember,
		Status:   models.MemberStatusRemoved,
	}
	require.NoError(t, db.Create(member).Error)

	role, err := families.ActiveRole(context.Background(), family.ID, removed.ID)
	require.NoError(t, err)
	require.Empty(t, role)
}

func TestFamilyListMembers(t *testing.T) {
	db := newTestDB(t)
	admin := createTestUser(t, db, "admin@example.com")
	member := createTestUser(t, db, "member@example.com")
	family := createTestFamily(t, db, admin.ID)
	addTestMember(t, db, family.ID, member.ID, models.RoleMember)
	families := newTestFamilyService(t, db)

	all, err := families.ListMembers(context.Background(), family.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "admin@example.com", all[0].Email)

	others, err := families.ListMembers(context.Background(), family.ID, admin.ID)
	require.NoError(t, err)
	require.Len(t, others, 1)
	require.Equal(t, member.ID, others[0].UserID)
}

func TestFamilyUpdateMember(t *testing.T) {
	db := newTestDB(t)
	admin := createTestUser(t, db, "admin@example.com")
	member := createTestUser(t, db, "member@example.com")
	family := createTestFamily(t, db, admin.ID)
	addTestMember(t, db, family.ID, member.ID, models.RoleMember)
	families := newTestFamilyService(t, db)

	role := models.RoleAdmin
	err := families.UpdateMember(context.Background(), family.ID, admin.ID, member.ID, UpdateMemberInput{Role: &role})
	require.NoError(t, err)

	got, err := families.ActiveRole(context.Background(), family.ID, member.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, got)
}

func TestFamilyUpdateMemberGuards(t *testing.T) {
	db := newTestDB(t)
	admin := createTestUser(t, db, "admin@example.com")
	member := createTestUser(t, db, "member@example.com")
	family := createTestFamily(t, db, admin.ID)
	addTestMember(t, db, family.ID, member.ID, models.RoleMember)
	families := newTestFamilyService(t, db)

	role := models.RoleAdmin

	// Non-admins cannot change memberships.
	err := families.UpdateMember(context.Background(), family.ID, member.ID, admin.ID, UpdateMemberInput{Role: &role})
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	// Admins cannot edit their own membership.
	err = families.UpdateMember(context.Background(), family.ID, admin.ID, admin.ID, UpdateMemberInput{Role: &role})
	require.Error(t, err)

	// Unknown targets report missing membership.
	err = families.UpdateMember(context.Background(), family.ID, admin.ID, "nope", UpdateMemberInput{Role: &role})
	require.ErrorIs(t, err, ErrNotFamilyMember)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"The Smiths":       "the-smiths",
		"  spaced  out  ":  "spaced-out",
		"Ünïcode Family":   "ünïcode-family",
		"trailing--dash- ": "trailing-dash",
		"123 Go":           "123-go",
	}
	for input, want := range cases {
		require.Equal(t, want, slugify(input), "input %q", input)
	}
}
