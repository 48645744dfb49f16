package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"askaway/internal/models"
	"askaway/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// GeneratedPassword is the password of every generated user.
const GeneratedPassword = "password123"

var topics = []string{
	"go", "python", "javascript", "react", "docker", "kubernetes", "postgres",
	"mongodb", "redis", "security", "testing", "performance", "api", "frontend",
	"devops", "machine-learning", "databases", "concurrency",
}

// Factory builds domain entities and persists them through the repositories.
// It is a thin helper used by the seed command and tests.
type Factory struct {
	repos *repository.Repositories
	opts  Options
	rng   *rand.Rand
	now   func() time.Time
}

// NewFactory creates a new Factory bound to repos.
func NewFactory(repos *repository.Repositories, opts Options) *Factory {
	seed := time.Now().UnixNano()
	gofakeit.Seed(seed)
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{repos: repos, opts: opts, rng: rand.New(rand.NewSource(seed)), now: time.Now}
}

func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return f.now().UTC().Add(-back)
}

func (f *Factory) tags() string {
	n := 1 + f.rng.Intn(4)
	picked := make([]string, 0, n)
	for _, i := range f.rng.Perm(len(topics))[:n] {
		picked = append(picked, topics[i])
	}
	return strings.Join(picked, ",")
}

// BuildUser returns an unsaved user with a hashed GeneratedPassword.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	user := &models.User{
		FirstName: first,
		LastName:  last,
		Username:  strings.ToLower(fmt.Sprintf("%s.%s%d", first, last, gofakeit.Number(100, 999))),
		Email:     strings.ToLower(gofakeit.Email()),
		Interests: f.tags(),
		WorkArea:  gofakeit.JobTitle(),
	}

	cost := bcrypt.DefaultCost
	if f.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(GeneratedPassword), cost)
	if err != nil {
		return nil, err
	}
	user.Password = string(hashed)

	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// BuildQuestion returns an unsaved question by author with a created_at
// spread over the last MaxDays days.
func (f *Factory) BuildQuestion(author *models.User, overrides ...func(*models.Question)) *models.Question {
	title := strings.TrimSuffix(gofakeit.Sentence(6), ".") + "?"
	q := &models.Question{
		Title:     title,
		Content:   gofakeit.Paragraph(1, 3, 12, " "),
		Tags:      f.tags(),
		UserID:    author.ID,
		CreatedAt: f.pastTime(),
	}
	for _, override := range overrides {
		override(q)
	}
	return q
}

// CreateUser builds and persists a user.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}
	if err := f.repos.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateQuestion builds and persists a question and bumps the author's counter.
func (f *Factory) CreateQuestion(ctx context.Context, author *models.User, overrides ...func(*models.Question)) (*models.Question, error) {
	q := f.BuildQuestion(author, overrides...)
	if err := f.repos.Questions.Create(ctx, q); err != nil {
		return nil, err
	}
	if err := f.repos.Users.IncrementCounters(ctx, author.ID, 1, 0); err != nil {
		return nil, err
	}
	return q, nil
}

// CreateAnswer persists a generated answer by author on q.
func (f *Factory) CreateAnswer(ctx context.Context, author *models.User, q *models.Question) (*models.Answer, error) {
	return createAnswer(ctx, f.repos, q.ID, author.ID, gofakeit.Paragraph(1, 2, 14, " "))
}

// Populate creates users generated users, then questions generated
// questions with a few answers and stars each. Authors are drawn from the
// generated users and from existing.
func (f *Factory) Populate(ctx context.Context, existing []*models.User, users, questions int) (*Result, error) {
	result := &Result{}
	pool := append(make([]*models.User, 0, len(existing)+users), existing...)
	for i := 0; i < users; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			// Fake usernames and emails occasionally collide.
			if models.IsCode(err, models.CodeConflict) {
				continue
			}
			return nil, fmt.Errorf("create user: %w", err)
		}
		pool = append(pool, u)
		result.Users++
	}
	if len(pool) == 0 {
		if questions > 0 {
			return nil, fmt.Errorf("generated questions need at least one user")
		}
		return result, nil
	}

	maxAnswers := f.opts.MaxAnswers
	if maxAnswers <= 0 {
		maxAnswers = 3
	}
	for i := 0; i < questions; i++ {
		q, err := f.CreateQuestion(ctx, f.pick(pool))
		if err != nil {
			return nil, fmt.Errorf("create question: %w", err)
		}
		result.Questions++

		for j := f.rng.Intn(maxAnswers + 1); j > 0; j-- {
			a, err := f.CreateAnswer(ctx, f.pick(pool), q)
			if err != nil {
				return nil, fmt.Errorf("create answer: %w", err)
			}
			result.Answers++

			if f.rng.Intn(2) == 0 {
				created, err := createStar(ctx, f.repos, f.pick(pool).ID, a)
				if err != nil {
					return nil, err
				}
				if created {
					result.Stars++
				}
			}
		}
	}
	return result, nil
}

func (f *Factory) pick(users []*models.User) *models.User {
	return users[f.rng.Intn(len(users))]
}
