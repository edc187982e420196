package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/volunteerhub/volunteer-backend/internal/models"
	"github.com/volunteerhub/volunteer-backend/internal/repository"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

func newTestAuthService(store QueryStore) *AuthService {
	return NewAuthService(store, testJWTSecret, "volunteer-backend", "volunteer-api", time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := repository.NewStore(db)
	svc := newTestAuthService(store)

	user, err := svc.Register(ctx, RegisterCmd{
		Username:  "alice",
		RealName:  "Alice Zhang",
		StudentID: "20230301",
		Email:     "alice@example.edu",
		Password:  "Sup3rSecret!",
	})
	require.NoError(t, err)
	require.Equal(t, models.RoleVolunteer, user.Role)
	require.Equal(t, models.StatusActive, user.Status)
	require.True(t, user.TotalServiceHours.IsZero())

	token, loggedIn, err := svc.Login(ctx, "alice", "Sup3rSecret!")
	require.NoError(t, err)
	require.Equal(t, user.ID, loggedIn.ID)

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte(testJWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	require.Equal(t, user.ID.String(), claims["user_id"])
	require.Equal(t, "alice", claims["username"])
	require.Equal(t, models.RoleVolunteer, claims["role"])
}

func TestRegisterConflicts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := repository.NewStore(db)
	svc := newTestAuthService(store)

	_, err := svc.Register(ctx, RegisterCmd{
		Username:  "bob",
		StudentID: "20230302",
		Email:     "bob@example.edu",
		Password:  "Sup3rSecret!",
	})
	require.NoError(t, err)

	cases := []struct {
		name  string
		cmd   RegisterCmd
		field string
	}{
		{"username taken", RegisterCmd{Username: "bob", StudentID: "20230303", Email: "other@example.edu", Password: "Sup3rSecret!"}, "username"},
		{"student id taken", RegisterCmd{Username: "carol", StudentID: "20230302", Email: "carol@example.edu", Password: "Sup3rSecret!"}, "student_id"},
		{"email taken", RegisterCmd{Username: "dave", StudentID: "20230304", Email: "bob@example.edu", Password: "Sup3rSecret!"}, "email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.cmd)
			var conflict *ConflictError
			require.ErrorAs(t, err, &conflict)
			require.Equal(t, tc.field, conflict.Field)
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := repository.NewStore(db)
	svc := newTestAuthService(store)

	_, err := svc.Register(ctx, RegisterCmd{
		Username:  "eve",
		StudentID: "20230305",
		Email:     "eve@example.edu",
		Password:  "Sup3rSecret!",
	})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "eve", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody", "Sup3rSecret!")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginDisabledAccount(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := repository.NewStore(db)
	svc := newTestAuthService(store)

	user, err := svc.Register(ctx, RegisterCmd{
		Username:  "frank",
		StudentID: "20230306",
		Email:     "frank@example.edu",
		Password:  "Sup3rSecret!",
	})
	require.NoError(t, err)

	_, err = db.Exec(ctx, `UPDATE users SET status = $1 WHERE id = $2`, models.StatusDisabled, user.ID)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "frank", "Sup3rSecret!")
	require.ErrorIs(t, err, ErrAccountDisabled)
}

func TestAdminLoginRejectsVolunteer(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := repository.NewStore(db)
	svc := newTestAuthService(store)

	user, err := svc.Register(ctx, RegisterCmd{
		Username:  "grace",
		StudentID: "20230307",
		Email:     "grace@example.edu",
		Password:  "Sup3rSecret!",
	})
	require.NoError(t, err)

	_, _, err = svc.AdminLogin(ctx, "grace", "Sup3rSecret!")
	require.ErrorIs(t, err, ErrNotAdmin)

	_, err = db.Exec(ctx, `UPDATE users SET role = $1 WHERE id = $2`, models.RoleAdmin, user.ID)
	require.NoError(t, err)

	_, promoted, err := svc.AdminLogin(ctx, "grace", "Sup3rSecret!")
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, promoted.Role)
}

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"too short", "Ab1!", true},
		{"one class", "aaaaaaaa", true},
		{"two classes", "abcd1234", true},
		{"three classes", "Abcd1234", false},
		{"four classes", "Abcd123!", false},
		{"lower digit special", "abcd123!", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePassword(tc.password)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRegisterRejectsBadEmail(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := repository.NewStore(db)
	svc := newTestAuthService(store)

	_, err := svc.Register(context.Background(), RegisterCmd{
		Username:  "henry",
		StudentID: "20230308",
		Email:     "not-an-email",
		Password:  "Sup3rSecret!",
	})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "email", validation.Field)
}
