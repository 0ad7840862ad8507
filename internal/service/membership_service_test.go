package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sepehrmasihpour/seshat-backend/internal/domain"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/errors"
)

func TestRegisterIsIdempotent(t *testing.T) {
	members := newFakeMemberRepo()
	svc := NewMembershipService(members, testLogger())
	ctx := context.Background()

	resp, err := svc.Register(ctx, 42, "Ada Lovelace", "ada")
	require.NoError(t, err)
	assert.Equal(t, domain.RegisterAdded, resp.Outcome)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Same payload again: no insert, no count movement
	resp, err = svc.Register(ctx, 42, "Ada Lovelace", "ada")
	require.NoError(t, err)
	assert.Equal(t, domain.RegisterUnchanged, resp.Outcome)
	assert.Equal(t, 1, members.insertCalls)

	count, err = svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegisterRefreshesChangedRecord(t *testing.T) {
	members := newFakeMemberRepo()
	svc := NewMembershipService(members, testLogger())
	ctx := context.Background()

	_, err := svc.Register(ctx, 42, "Ada Lovelace", "ada")
	require.NoError(t, err)

	resp, err := svc.Register(ctx, 42, "Ada Lovelace", "countess_ada")
	require.NoError(t, err)
	assert.Equal(t, domain.RegisterUpdated, resp.Outcome)
	assert.Equal(t, "countess_ada", resp.Member.Username)
	assert.Equal(t, 1, members.insertCalls)
	assert.Equal(t, 1, members.updateCalls)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRemoveMember(t *testing.T) {
	members := newFakeMemberRepo()
	svc := NewMembershipService(members, testLogger())
	ctx := context.Background()

	_, err := svc.Register(ctx, 42, "Ada Lovelace", "ada")
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, 42))

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Removing again is a clean not-found with no count movement
	err = svc.Remove(ctx, 42)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNotFound, err.(*errors.AppError).Type)

	count, err = svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLookup(t *testing.T) {
	members := newFakeMemberRepo()
	svc := NewMembershipService(members, testLogger())
	ctx := context.Background()

	_, err := svc.Lookup(ctx, 42)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNotFound, err.(*errors.AppError).Type)

	_, err = svc.Register(ctx, 42, "Ada Lovelace", "ada")
	require.NoError(t, err)

	member, err := svc.Lookup(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "ada", member.Username)
}

func TestRegisterStorageErrorIsWrapped(t *testing.T) {
	members := newFakeMemberRepo()
	members.insertErr = assert.AnError
	svc := NewMembershipService(members, testLogger())

	_, err := svc.Register(context.Background(), 42, "Ada Lovelace", "ada")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeInternal, err.(*errors.AppError).Type)
}
