// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"askaway/internal/models"
	"askaway/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

//go:embed sample_data.yml
var sampleYAML []byte

// SampleData is the curated demo dataset. Questions, answers and stars refer
// to each other by key and to users by username.
type SampleData struct {
	Users     []SampleUser     `yaml:"users"`
	Questions []SampleQuestion `yaml:"questions"`
	Answers   []SampleAnswer   `yaml:"answers"`
	Stars     []SampleStar     `yaml:"stars"`
}

type SampleUser struct {
	Username  string `yaml:"username"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	Interests string `yaml:"interests"`
	WorkArea  string `yaml:"work_area"`
}

type SampleQuestion struct {
	Key     string `yaml:"key"`
	Author  string `yaml:"author"`
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	Tags    string `yaml:"tags"`
}

type SampleAnswer struct {
	Key      string `yaml:"key"`
	Question string `yaml:"question"`
	Author   string `yaml:"author"`
	Content  string `yaml:"content"`
}

type SampleStar struct {
	User   string `yaml:"user"`
	Answer string `yaml:"answer"`
}

// LoadSample parses the embedded dataset.
func LoadSample() (*SampleData, error) {
	return ParseSample(sampleYAML)
}

// ParseSample decodes raw and checks that every reference resolves.
func ParseSample(raw []byte) (*SampleData, error) {
	var data SampleData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse sample data: %w", err)
	}

	users := make(map[string]bool, len(data.Users))
	for _, u := range data.Users {
		users[u.Username] = true
	}
	questions := make(map[string]bool, len(data.Questions))
	for _, q := range data.Questions {
		if !users[q.Author] {
			return nil, fmt.Errorf("question %q: unknown author %q", q.Key, q.Author)
		}
		questions[q.Key] = true
	}
	answers := make(map[string]bool, len(data.Answers))
	for _, a := range data.Answers {
		if !questions[a.Question] {
			return nil, fmt.Errorf("answer %q: unknown question %q", a.Key, a.Question)
		}
		if !users[a.Author] {
			return nil, fmt.Errorf("answer %q: unknown author %q", a.Key, a.Author)
		}
		answers[a.Key] = true
	}
	for _, s := range data.Stars {
		if !users[s.User] || !answers[s.Answer] {
			return nil, fmt.Errorf("star %s -> %s: unknown reference", s.User, s.Answer)
		}
	}
	return &data, nil
}

// Options configuration for the seeder
type Options struct {
	// Users and Questions add that many generated records after the sample.
	Users     int
	Questions int
	// MaxAnswers bounds the generated answers per generated question.
	MaxAnswers int
	// MaxDays spreads generated timestamps over the last MaxDays days.
	MaxDays     int
	ShouldClean bool
	// SkipBcrypt stores a cheap hash for generated users.
	SkipBcrypt bool
}

// Result counts the records a run created.
type Result struct {
	Users     int
	Questions int
	Answers   int
	Stars     int
}

func (r *Result) add(o *Result) {
	r.Users += o.Users
	r.Questions += o.Questions
	r.Answers += o.Answers
	r.Stars += o.Stars
}

// Cleaner removes all application data.
type Cleaner func(ctx context.Context) error

// Seeder writes demo data through the repositories so it works on every
// storage backend.
type Seeder struct {
	repos   *repository.Repositories
	cleaner Cleaner
	// sampleUsers are the sample accounts, created or found by Sample.
	sampleUsers []*models.User
}

func New(repos *repository.Repositories, cleaner Cleaner) *Seeder {
	return &Seeder{repos: repos, cleaner: cleaner}
}

// Seed populates the database with the sample dataset and then any generated
// records requested by opts.
func (s *Seeder) Seed(ctx context.Context, opts Options) (*Result, error) {
	slog.InfoContext(ctx, "🌱 Starting database seeding",
		slog.Int("extra_users", opts.Users), slog.Int("extra_questions", opts.Questions))

	if opts.ShouldClean {
		if s.cleaner == nil {
			return nil, errors.New("no cleaner configured for this backend")
		}
		slog.InfoContext(ctx, "🗑️  Clearing existing data...")
		if err := s.cleaner(ctx); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	data, err := LoadSample()
	if err != nil {
		return nil, err
	}
	total, err := s.Sample(ctx, data)
	if err != nil {
		return nil, err
	}

	if opts.Users > 0 || opts.Questions > 0 {
		generated, err := NewFactory(s.repos, opts).Populate(ctx, s.sampleUsers, opts.Users, opts.Questions)
		if err != nil {
			return nil, err
		}
		total.add(generated)
	}

	slog.InfoContext(ctx, "🎉 Database seeding completed successfully!",
		slog.Int("users", total.Users), slog.Int("questions", total.Questions),
		slog.Int("answers", total.Answers), slog.Int("stars", total.Stars))
	return total, nil
}

// Sample writes data. Existing users are reused, and questions, answers and
// stars are only written when the database has no questions yet, so running
// it twice changes nothing.
func (s *Seeder) Sample(ctx context.Context, data *SampleData) (*Result, error) {
	result := &Result{}
	users := make(map[string]*models.User, len(data.Users))
	s.sampleUsers = s.sampleUsers[:0]
	for _, su := range data.Users {
		user, created, err := s.ensureUser(ctx, su)
		if err != nil {
			return nil, err
		}
		if created {
			result.Users++
			slog.InfoContext(ctx, "✓ Created user", slog.String("username", user.Username))
		}
		users[su.Username] = user
		s.sampleUsers = append(s.sampleUsers, user)
	}

	existing, err := s.repos.Questions.List(ctx, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		slog.InfoContext(ctx, "Sample questions already exist")
		return result, nil
	}

	questions := make(map[string]*models.Question, len(data.Questions))
	for _, sq := range data.Questions {
		author := users[sq.Author]
		q := &models.Question{Title: sq.Title, Content: sq.Content, Tags: sq.Tags, UserID: author.ID}
		if err := s.repos.Questions.Create(ctx, q); err != nil {
			return nil, fmt.Errorf("create question %q: %w", sq.Key, err)
		}
		if err := s.repos.Users.IncrementCounters(ctx, author.ID, 1, 0); err != nil {
			return nil, err
		}
		questions[sq.Key] = q
		result.Questions++
	}

	answers := make(map[string]*models.Answer, len(data.Answers))
	for _, sa := range data.Answers {
		a, err := createAnswer(ctx, s.repos, questions[sa.Question].ID, users[sa.Author].ID, sa.Content)
		if err != nil {
			return nil, fmt.Errorf("create answer %q: %w", sa.Key, err)
		}
		answers[sa.Key] = a
		result.Answers++
	}

	for _, st := range data.Stars {
		created, err := createStar(ctx, s.repos, users[st.User].ID, answers[st.Answer])
		if err != nil {
			return nil, err
		}
		if created {
			result.Stars++
		}
	}
	return result, nil
}

func (s *Seeder) ensureUser(ctx context.Context, su SampleUser) (*models.User, bool, error) {
	existing, err := s.repos.Users.GetByUsername(ctx, su.Username)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, err
	}
	user := &models.User{
		FirstName: su.FirstName,
		LastName:  su.LastName,
		Username:  su.Username,
		Email:     su.Email,
		Password:  string(hashed),
		Interests: su.Interests,
		WorkArea:  su.WorkArea,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create user %q: %w", su.Username, err)
	}
	return user, true, nil
}

func createAnswer(ctx context.Context, repos *repository.Repositories, questionID, userID, content string) (*models.Answer, error) {
	a := &models.Answer{
		Content:      content,
		UserID:       userID,
		QuestionID:   questionID,
		QualityScore: models.DefaultQualityScore,
	}
	if err := repos.Answers.Create(ctx, a); err != nil {
		return nil, err
	}
	if err := repos.Questions.IncrementAnswers(ctx, questionID, 1); err != nil {
		return nil, err
	}
	if err := repos.Users.IncrementCounters(ctx, userID, 0, 1); err != nil {
		return nil, err
	}
	return a, nil
}

// createStar reports false when userID already starred the answer.
func createStar(ctx context.Context, repos *repository.Repositories, userID string, answer *models.Answer) (bool, error) {
	star := &models.Star{UserID: userID, QuestionID: answer.QuestionID, AnswerID: answer.ID}
	if err := repos.Stars.Create(ctx, star); err != nil {
		if models.IsCode(err, models.CodeConflict) {
			return false, nil
		}
		return false, err
	}
	if err := repos.Answers.IncrementStars(ctx, answer.ID, 1); err != nil {
		return false, err
	}
	answer.StarsCount++
	return true, nil
}
