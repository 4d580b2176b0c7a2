package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateOrganization creates an active test organization with the given name.
func (f *Fixtures) CreateOrganization(ctx context.Context, name string) models.Organization {
	f.t.Helper()

	now := time.Now().UTC()
	org := models.Organization{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("organizations").InsertOne(ctx, org); err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}
	return org
}

// CreateUser creates an active test user with the given role. orgID may be
// nil for superadmins.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string, orgID *primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:             primitive.NewObjectID(),
		FullName:       fullName,
		FullNameCI:     text.Fold(fullName),
		Email:          text.Fold(email),
		Role:           role,
		OrganizationID: orgID,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateDisabledUser creates a user with Active set to false.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName, email, role string, orgID *primitive.ObjectID) models.User {
	f.t.Helper()

	user := f.CreateUser(ctx, fullName, email, role, orgID)
	if _, err := f.db.Collection("users").UpdateByID(ctx, user.ID,
		map[string]any{"$set": map[string]any{"active": false}}); err != nil {
		f.t.Fatalf("failed to disable test user: %v", err)
	}
	user.Active = false
	return user
}

// CreateCustomRole creates an organization role with the given permissions.
func (f *Fixtures) CreateCustomRole(ctx context.Context, orgID primitive.ObjectID, name string, perms []string) models.CustomRole {
	f.t.Helper()

	now := time.Now().UTC()
	role := models.CustomRole{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		Name:           name,
		NameCI:         text.Fold(name),
		Permissions:    perms,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := f.db.Collection("organization_roles").InsertOne(ctx, role); err != nil {
		f.t.Fatalf("failed to create test custom role: %v", err)
	}
	return role
}

// AssignCustomRole points a user's custom_role_id at the given role.
func (f *Fixtures) AssignCustomRole(ctx context.Context, userID, roleID primitive.ObjectID) {
	f.t.Helper()

	if _, err := f.db.Collection("users").UpdateByID(ctx, userID,
		map[string]any{"$set": map[string]any{"custom_role_id": roleID}}); err != nil {
		f.t.Fatalf("failed to assign custom role: %v", err)
	}
}

// CreateMachine creates an active machine with the given hour readings.
// Pass nil for readings the machine should not carry.
func (f *Fixtures) CreateMachine(ctx context.Context, orgID primitive.ObjectID, name string, currentHours, nextServiceHours *float64) models.Machine {
	f.t.Helper()

	now := time.Now().UTC()
	machine := models.Machine{
		ID:               primitive.NewObjectID(),
		OrganizationID:   orgID,
		Name:             name,
		NameCI:           text.Fold(name),
		Status:           "active",
		CurrentHours:     currentHours,
		NextServiceHours: nextServiceHours,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if _, err := f.db.Collection("machines").InsertOne(ctx, machine); err != nil {
		f.t.Fatalf("failed to create test machine: %v", err)
	}
	return machine
}

// SetMachineOwner links the machine to an owner user id.
func (f *Fixtures) SetMachineOwner(ctx context.Context, machineID, userID primitive.ObjectID) {
	f.t.Helper()

	if _, err := f.db.Collection("machines").UpdateByID(ctx, machineID,
		map[string]any{"$set": map[string]any{"user_id": userID}}); err != nil {
		f.t.Fatalf("failed to set machine owner: %v", err)
	}
}

// Float64 returns a pointer to v; handy for hour fields.
func Float64(v float64) *float64 {
	return &v
}
