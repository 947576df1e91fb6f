package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/khrees2412/jobpilot/internal/config"
	"github.com/khrees2412/jobpilot/internal/governor"
	"github.com/khrees2412/jobpilot/internal/matching"
	"github.com/khrees2412/jobpilot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDiscoverer struct {
	postings []*models.JobPosting
	err      error
}

func (f *fakeDiscoverer) Search(ctx context.Context, criteria models.SearchCriteria, maxListings int) ([]*models.JobPosting, error) {
	return f.postings, f.err
}

type fakeApplier struct {
	status  models.AttemptStatus
	applied []string
	onApply func()
}

func (f *fakeApplier) Apply(ctx context.Context, match *models.MatchResult) *models.ApplicationAttempt {
	f.applied = append(f.applied, match.Posting.Identity())
	if f.onApply != nil {
		f.onApply()
	}
	return &models.ApplicationAttempt{
		PostingID: match.Posting.Identity(),
		Title:     match.Posting.Title,
		Company:   match.Posting.Company,
		Score:     match.Score,
		Status:    f.status,
	}
}

type fakeSession struct {
	alive   bool
	authErr error
	reauths int
}

func (f *fakeSession) IsAlive(ctx context.Context) bool { return f.alive }

func (f *fakeSession) Authenticate(ctx context.Context, creds config.Credentials, challengeWait time.Duration) error {
	f.reauths++
	if f.authErr == nil {
		f.alive = true
	}
	return f.authErr
}

type fakeHistory struct{ seen map[string]bool }

func (f *fakeHistory) HasTerminalAttempt(ctx context.Context, postingID string) (bool, error) {
	return f.seen[postingID], nil
}

func testRunConfig() *config.RunConfig {
	rc := config.DefaultRunConfig(nil)
	rc.Credentials = config.Credentials{Email: "user@example.com", Password: "hunter2"}
	rc.Criteria = models.SearchCriteria{Keyword: "backend engineer"}
	rc.ResumePath = "/tmp/resume.txt"
	rc.MaxApplications = 3
	return rc
}

func testProfile() *models.CandidateProfile {
	return &models.CandidateProfile{
		Name:   "Ada Example",
		Email:  "ada@example.com",
		Skills: []string{"go", "sql", "docker", "kubernetes"},
	}
}

func testPostings(n int) []*models.JobPosting {
	postings := make([]*models.JobPosting, n)
	for i := range postings {
		postings[i] = &models.JobPosting{
			ID:          fmt.Sprintf("p%d", i+1),
			Title:       fmt.Sprintf("Backend Engineer %d", i+1),
			Company:     "Acme",
			URL:         fmt.Sprintf("https://example.com/jobs/%d", i+1),
			Description: "go sql docker kubernetes",
		}
	}
	return postings
}

// testDeps wires the pipeline against fakes with fallback-only scoring.
func testDeps(c *Coordinator, disc *fakeDiscoverer, app *fakeApplier, sess *fakeSession, hist governor.History) *deps {
	return &deps{
		discoverer: disc,
		matcher:    matching.NewEngine(nil, c.run.ScoreThreshold, c.run.FallbackThreshold),
		applier:    app,
		session:    sess,
		gov:        governor.New(c.run.MaxApplications, c.state, hist, nil),
	}
}

func TestPipelineSubmitsSelectedCandidates(t *testing.T) {
	coord := New(nil, testRunConfig(), nil)
	disc := &fakeDiscoverer{postings: testPostings(5)}
	app := &fakeApplier{status: models.StatusSubmitted}
	sess := &fakeSession{alive: true}
	report := &models.RunReport{}

	err := coord.pipeline(context.Background(), testDeps(coord, disc, app, sess, nil), testProfile(), report)
	report.Tally()

	require.NoError(t, err)
	assert.Equal(t, 5, report.Discovered)
	assert.Equal(t, 5, report.Scored)
	// Selection is capped at MaxApplications.
	assert.Len(t, app.applied, 3)
	assert.Equal(t, 3, report.Submitted)
	assert.LessOrEqual(t, report.Submitted, coord.run.MaxApplications)
}

func TestPipelineCapAlreadyExhausted(t *testing.T) {
	coord := New(nil, testRunConfig(), nil)
	for i := 0; i < coord.run.MaxApplications; i++ {
		coord.state.RecordSubmission()
	}
	app := &fakeApplier{status: models.StatusSubmitted}
	report := &models.RunReport{}

	err := coord.pipeline(context.Background(), testDeps(coord, &fakeDiscoverer{postings: testPostings(3)}, app, &fakeSession{alive: true}, nil), testProfile(), report)
	report.Tally()

	require.NoError(t, err)
	assert.Empty(t, app.applied, "no posting may be opened once the cap is reached")
	assert.Equal(t, 3, report.Skipped)
	for _, a := range report.Attempts {
		assert.Equal(t, "submission cap reached", a.Reason)
	}
}

func TestPipelineSuppressesDuplicates(t *testing.T) {
	coord := New(nil, testRunConfig(), nil)
	hist := &fakeHistory{seen: map[string]bool{"p1": true}}
	app := &fakeApplier{status: models.StatusSubmitted}
	report := &models.RunReport{}

	err := coord.pipeline(context.Background(), testDeps(coord, &fakeDiscoverer{postings: testPostings(3)}, app, &fakeSession{alive: true}, hist), testProfile(), report)
	report.Tally()

	require.NoError(t, err)
	assert.NotContains(t, app.applied, "p1")
	assert.Len(t, app.applied, 2)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, report.Submitted)
}

func TestPipelineCancellationAbortsRemaining(t *testing.T) {
	coord := New(nil, testRunConfig(), nil)
	app := &fakeApplier{status: models.StatusSubmitted}
	// Cancellation lands while the first application is in flight.
	app.onApply = func() { coord.Cancel() }
	report := &models.RunReport{}

	err := coord.pipeline(context.Background(), testDeps(coord, &fakeDiscoverer{postings: testPostings(3)}, app, &fakeSession{alive: true}, nil), testProfile(), report)
	report.Tally()

	require.NoError(t, err)
	assert.Len(t, app.applied, 1, "only the in-flight application runs to completion")
	assert.Equal(t, 2, report.Aborted)
	assert.Equal(t, "run cancelled", report.Err)
	// Every selected candidate is accounted for.
	assert.Len(t, report.Attempts, 3)
}

// recordingMatcher captures the context handed to scoring.
type recordingMatcher struct {
	Matcher
	scoreCtx context.Context
}

func (r *recordingMatcher) ScoreAll(ctx context.Context, profile *models.CandidateProfile, postings []*models.JobPosting) []*models.MatchResult {
	r.scoreCtx = ctx
	return r.Matcher.ScoreAll(ctx, profile, postings)
}

func TestPipelineScoringDetachedFromCancellation(t *testing.T) {
	coord := New(nil, testRunConfig(), nil)
	d := testDeps(coord, &fakeDiscoverer{postings: testPostings(3)}, &fakeApplier{status: models.StatusSubmitted}, &fakeSession{alive: true}, nil)
	rec := &recordingMatcher{Matcher: d.matcher}
	d.matcher = rec

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := &models.RunReport{}

	err := coord.pipeline(ctx, d, testProfile(), report)
	report.Tally()

	require.NoError(t, err)
	// In-flight scoring calls run to completion even under cancellation;
	// the application loop discards the results instead.
	require.NotNil(t, rec.scoreCtx)
	assert.NoError(t, rec.scoreCtx.Err(), "scoring context must outlive run cancellation")
	assert.Equal(t, 3, report.Scored)
	assert.Equal(t, 3, report.Aborted)
}

func TestPipelineReauthenticatesDeadSession(t *testing.T) {
	coord := New(nil, testRunConfig(), nil)
	sess := &fakeSession{alive: false}
	app := &fakeApplier{status: models.StatusSubmitted}
	report := &models.RunReport{}

	err := coord.pipeline(context.Background(), testDeps(coord, &fakeDiscoverer{postings: testPostings(1)}, app, sess, nil), testProfile(), report)

	require.NoError(t, err)
	assert.Equal(t, 1, sess.reauths)
	assert.Len(t, app.applied, 1)
}

func TestPipelineFailsWhenReauthFails(t *testing.T) {
	coord := New(nil, testRunConfig(), nil)
	sess := &fakeSession{alive: false, authErr: errors.New("credentials rejected")}
	app := &fakeApplier{status: models.StatusSubmitted}
	report := &models.RunReport{}

	err := coord.pipeline(context.Background(), testDeps(coord, &fakeDiscoverer{postings: testPostings(2)}, app, sess, nil), testProfile(), report)
	report.Tally()

	require.Error(t, err)
	assert.Empty(t, app.applied)
	assert.Equal(t, 1, report.Aborted)
	assert.Contains(t, report.Err, "re-authentication")
}

func TestPipelineDiscoveryFailure(t *testing.T) {
	coord := New(nil, testRunConfig(), nil)
	report := &models.RunReport{}

	err := coord.pipeline(context.Background(), testDeps(coord, &fakeDiscoverer{err: errors.New("portal unreachable")}, &fakeApplier{}, &fakeSession{alive: true}, nil), testProfile(), report)

	require.Error(t, err)
	assert.Contains(t, report.Err, "discovery")
	assert.Empty(t, report.Attempts)
}

func TestRunFailsFastOnInvalidConfig(t *testing.T) {
	rc := testRunConfig()
	rc.Criteria.Keyword = ""
	coord := New(nil, rc, nil)

	report, err := coord.Run(context.Background())

	require.Error(t, err)
	require.NotNil(t, report)
	assert.NotEmpty(t, report.RunID)
	assert.NotEmpty(t, report.Err)
	assert.False(t, report.CompletedAt.IsZero())
}

func TestRunFailsBeforeSessionWhenResumeMissing(t *testing.T) {
	rc := testRunConfig()
	rc.ResumePath = filepath.Join(t.TempDir(), "missing.txt")
	coord := New(nil, rc, nil)

	report, err := coord.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, report.Err, "profile unavailable")
}
