package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmerrifield20/profiles/internal/features"
	"github.com/jmerrifield20/profiles/internal/users"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the stores with development data",
	Long: `seed creates three users in one domain with follow relationships, a
platform admin, domain features and configuration values.

Running twice is safe: existing users are left untouched.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

var seedDomain = uuid.MustParse("00000000-0000-0000-0000-0000000000d1")

type seedUser struct {
	ID        uuid.UUID
	Email     string
	Firstname string
	Lastname  string
	JobTitle  string
	Password  string // plaintext; hashed before insert
}

var seedUsers = []seedUser{
	{uuid.MustParse("00000000-0000-0000-0000-000000000001"), "alice@acme.test", "Alice", "Chen", "Engineering manager", "profiles_dev"},
	{uuid.MustParse("00000000-0000-0000-0000-000000000002"), "bob@acme.test", "Bob", "Russo", "Developer", "profiles_dev"},
	{uuid.MustParse("00000000-0000-0000-0000-000000000003"), "carol@acme.test", "Carol", "Osei", "Administrator", "profiles_dev"},
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	created := make([]*users.User, 0, len(seedUsers))
	for _, su := range seedUsers {
		u, err := seedAccount(ctx, s, su)
		if err != nil {
			return err
		}
		created = append(created, u)
	}
	alice, bob, carol := created[0], created[1], created[2]

	for _, edge := range [][2]*users.User{{bob, alice}, {carol, alice}, {alice, bob}} {
		if err := s.follow.Follow(ctx, edge[0], edge[1]); err != nil {
			return err
		}
	}

	if err := s.admins.Add(ctx, carol.ID); err != nil {
		return err
	}

	if err := s.feats.Save(ctx, &features.Features{
		DomainID: seedDomain.String(),
		Modules: []features.Module{{
			Name: "linagora.esn.unifiedinbox",
			Configurations: []features.Configuration{
				{Name: "view", Value: json.RawMessage(`"messages"`)},
				{Name: "numberOfMessagesPerPage", Value: json.RawMessage(`20`)},
			},
		}},
	}); err != nil {
		return err
	}

	if err := s.config.Get("homePage").ForDomain(seedDomain).Set(ctx, "unifiedinbox"); err != nil {
		return fmt.Errorf("seed domain home page: %w", err)
	}
	if err := s.config.Get("homePage").ForUser(alice).Set(ctx, "calendar"); err != nil {
		return fmt.Errorf("seed user home page: %w", err)
	}
	if err := s.config.Get("businessHours").InModule("linagora.esn.calendar").ForDomain(seedDomain).Set(ctx,
		[]map[string]any{{"start": "09:00", "end": "18:00", "daysOfWeek": []int{1, 2, 3, 4, 5}}},
	); err != nil {
		return fmt.Errorf("seed business hours: %w", err)
	}

	logger.Info("seed complete", zap.String("domain_id", seedDomain.String()))
	return nil
}

func seedAccount(ctx context.Context, s *stores, su seedUser) (*users.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password for %s: %w", su.Email, err)
	}

	u := &users.User{
		ID:                su.ID,
		Firstname:         su.Firstname,
		Lastname:          su.Lastname,
		Emails:            []string{su.Email},
		JobTitle:          su.JobTitle,
		PreferredDomainID: seedDomain,
		PasswordHash:      string(hash),
		Accounts: []users.Account{{
			Type:           users.AccountTypeEmail,
			Hosted:         true,
			PreferredEmail: su.Email,
			Emails:         []string{su.Email},
		}},
		Domains: []users.DomainMembership{{DomainID: seedDomain, JoinedAt: time.Now().UTC()}},
	}

	err = s.users.Create(ctx, u)
	switch {
	case errors.Is(err, users.ErrDuplicate):
		logger.Info("seed user exists", zap.String("email", su.Email))
		return s.users.GetByID(ctx, su.ID)
	case err != nil:
		return nil, fmt.Errorf("insert user %s: %w", su.Email, err)
	}
	logger.Info("seed user created", zap.String("email", su.Email), zap.String("user_id", u.ID.String()))
	return u, nil
}
