// internal/profile/seed.go
package profile

import (
	"context"
	"errors"
	"fmt"
	"log"

	"backcheck-service/pkg/models"
)

type demoTalent struct {
	UID        string
	FullName   string
	Profession string
	Skills     []string
}

var demoTalents = []demoTalent{
	{UID: "demo-talent-1", FullName: "Amaka Okafor", Profession: "Registered Nurse", Skills: []string{"Triage", "ICU"}},
	{UID: "demo-talent-2", FullName: "John Doe", Profession: "Software Engineer", Skills: []string{"Go", "PostgreSQL"}},
	{UID: "demo-talent-3", FullName: "Tunde Bakare", Profession: "Accountant", Skills: []string{"IFRS", "Audit"}},
	{UID: "demo-talent-4", FullName: "Grace Mensah", Profession: "Software Engineer", Skills: []string{"React", "TypeScript"}},
}

// SeedDemoTalents writes a few talent profiles for local runs. Profiles that
// already exist are left alone, so it is safe on every start.
func SeedDemoTalents(ctx context.Context, r *Repository) (int, error) {
	seeded := 0
	for _, d := range demoTalents {
		_, err := r.Get(ctx, d.UID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return seeded, fmt.Errorf("check demo talent %s: %w", d.UID, err)
		}

		now := r.Now()
		t := &models.TalentProfile{
			Principal: models.Principal{
				UID:         d.UID,
				Email:       d.UID + "@demo.backcheck.local",
				Role:        models.RoleTalent,
				CreatedAt:   now,
				UpdatedAt:   now,
				DisplayName: d.FullName,
			},
			FullName:   d.FullName,
			Profession: d.Profession,
			Skills:     d.Skills,
		}
		if err := r.CreateTalent(ctx, t); err != nil {
			return seeded, fmt.Errorf("failed to seed demo talent %s: %w", d.UID, err)
		}
		log.Printf("✅ [SEED] demo talent %s (%s) -> %s", d.FullName, d.Profession, t.PublicID)
		seeded++
	}
	return seeded, nil
}
