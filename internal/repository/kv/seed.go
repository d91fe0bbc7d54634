package kv

import (
	"time"

	"github.com/Chakshu098/Everhack-final/internal/domain"
)

// Ids of the seeded accounts.
const (
	SeedAdminID = "admin-123"
	SeedDemoID  = "user-456"
)

// Seed holds the collections returned when their keys are still absent.
type Seed struct {
	Events []domain.Event
	Users  []domain.User
}

// SeedCredentials configures the seeded accounts.
type SeedCredentials struct {
	AdminEmail string
	AdminHash  []byte
	DemoHash   []byte
}

// DefaultSeed returns the showcase events plus the admin and demo accounts.
func DefaultSeed(creds SeedCredentials, now time.Time) Seed {
	adminEmail := creds.AdminEmail
	if adminEmail == "" {
		adminEmail = "admin@everhack.com"
	}
	return Seed{
		Events: []domain.Event{
			{
				ID:              "cyber-siege-2026",
				Title:           "Cyber Siege 2026",
				Description:     "The ultimate cybersecurity capture-the-flag competition.",
				LongDescription: "Cyber Siege 2026 is the most anticipated CTF event of the year. Join thousands of security researchers, ethical hackers, and cybersecurity enthusiasts as they compete in challenges spanning web exploitation, reverse engineering, cryptography, forensics, and more.",
				EventType:       domain.EventTypeCTF,
				ImageURL:        "https://images.unsplash.com/photo-1550751827-4bd374c3f58b?auto=format&fit=crop&q=80&w=2070",
				StartDate:       "2026-02-15",
				EndDate:         "2026-02-17",
				Location:        "Online + San Francisco, CA",
				Participants:    2500,
				MaxParticipants: 5000,
				PrizePool:       "$50,000",
				Status:          domain.EventStatusUpcoming,
				Organizer:       "CyberSec Foundation",
				Rules:           []string{"Teams of 1-4 members", "No sharing flags", "No attacking infra"},
				Timeline:        []domain.TimelineItem{{Time: "Day 1 9:00 AM", Event: "Kickoff"}},
				Partners: []domain.Partner{
					{Name: "TechCorp", LogoURL: "https://api.dicebear.com/7.x/identicon/svg?seed=TechCorp", WebsiteURL: "https://example.com"},
					{Name: "CyberSystems", LogoURL: "https://api.dicebear.com/7.x/identicon/svg?seed=CyberSystems"},
				},
			},
			{
				ID:              "buildverse-hackathon",
				Title:           "BuildVerse Hackathon",
				Description:     "Build the future of decentralized applications.",
				LongDescription: "BuildVerse is a 48-hour hackathon focused on building the next generation of decentralized applications. Work alongside industry mentors from leading Web3 companies and compete for substantial prizes.",
				EventType:       domain.EventTypeHackathon,
				ImageURL:        "https://images.unsplash.com/photo-1639762681485-074b7f938ba0?auto=format&fit=crop&q=80&w=2832",
				StartDate:       "2026-03-08",
				EndDate:         "2026-03-10",
				Location:        "New York City, NY",
				Participants:    1800,
				MaxParticipants: 2500,
				PrizePool:       "$100,000",
				Status:          domain.EventStatusUpcoming,
				Organizer:       "Web3 Builders Alliance",
				Rules:           []string{"Teams of 2-5", "Fresh code only"},
				Timeline:        []domain.TimelineItem{{Time: "Day 1 6:00 PM", Event: "Hacking Starts"}},
			},
			{
				ID:              "web3-masterclass",
				Title:           "Web3 Masterclass",
				Description:     "Learn blockchain development from industry experts.",
				LongDescription: "This comprehensive 8-hour workshop covers everything you need to know to start building on blockchain. From understanding smart contract fundamentals to deploying your first dApp.",
				EventType:       domain.EventTypeWorkshop,
				ImageURL:        "https://images.unsplash.com/photo-1558591710-4b4a1ae0f04d?auto=format&fit=crop&q=80&w=2787",
				StartDate:       "2026-01-20",
				EndDate:         "2026-01-20",
				Location:        "Online",
				Participants:    500,
				MaxParticipants: 1000,
				PrizePool:       "Free",
				Status:          domain.EventStatusCompleted,
				Organizer:       "EverHack Academy",
			},
		},
		Users: []domain.User{
			{
				ID:           SeedAdminID,
				Email:        adminEmail,
				FullName:     "System Admin",
				Role:         domain.RoleAdmin,
				CreatedAt:    now,
				Points:       9999,
				PasswordHash: creds.AdminHash,
			},
			{
				ID:           SeedDemoID,
				Email:        "demo@user.com",
				FullName:     "Demo User",
				Role:         domain.RoleUser,
				CreatedAt:    now,
				Points:       1200,
				PasswordHash: creds.DemoHash,
			},
		},
	}
}

// SeedAdmin returns the seeded admin account, if any.
func (r *Repository) SeedAdmin() (domain.User, bool) {
	for _, u := range r.seed.Users {
		if u.Role == domain.RoleAdmin {
			return cloneUsers([]domain.User{u})[0], true
		}
	}
	return domain.User{}, false
}
