package seed

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/Tatiana-20/tati-blog/internal/models"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Seeder populates the database with demo users, posts, comments and
// reactions.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a Seeder for the given database.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ClearAll wipes every seeded table. Order matters: children first.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing database...")
	for _, model := range []any{
		&models.Reaction{},
		&models.Comment{},
		&models.Post{},
		&models.User{},
	} {
		if err := s.db.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// Run seeds the database: one admin, NumUsers regular users, NumPosts posts
// with a few comments (some threaded) and reactions each.
func (s *Seeder) Run(opts Options) error {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 20
	}
	if opts.NumPosts <= 0 {
		opts.NumPosts = 50
	}
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	factory, err := NewFactory(s.db)
	if err != nil {
		return err
	}

	admin, err := factory.CreateUser(models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Printf("Admin: %s (password %s)", admin.Email, DefaultPassword)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := factory.CreateUser(models.RoleUser)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("Created %d users", len(users))

	comments, reactions := 0, 0
	for i := 0; i < opts.NumPosts; i++ {
		author := users[factory.rand.Intn(len(users))]
		post, err := factory.CreatePost(author)
		if err != nil {
			return fmt.Errorf("create post: %w", err)
		}

		for j := factory.rand.Intn(5); j > 0; j-- {
			commenter := users[factory.rand.Intn(len(users))]
			parent, err := factory.CreateComment(commenter, post, nil)
			if err != nil {
				return fmt.Errorf("create comment: %w", err)
			}
			comments++
			if factory.rand.Intn(3) == 0 {
				replier := users[factory.rand.Intn(len(users))]
				if _, err := factory.CreateComment(replier, post, parent); err != nil {
					return fmt.Errorf("create reply: %w", err)
				}
				comments++
			}
		}

		for j := factory.rand.Intn(8); j > 0; j-- {
			reactor := users[factory.rand.Intn(len(users))]
			if err := factory.CreateReaction(reactor, post); err != nil {
				return fmt.Errorf("create reaction: %w", err)
			}
			reactions++
		}
	}
	log.Printf("Created %d posts, %d comments, %d reactions", opts.NumPosts, comments, reactions)

	return nil
}
