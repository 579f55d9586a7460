package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/okian/skillmatch/internal/adapters/repository"
	service "github.com/okian/skillmatch/internal/app"
	"github.com/okian/skillmatch/internal/config"
	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/internal/domain/users"
	"github.com/okian/skillmatch/internal/seed"
	"github.com/okian/skillmatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func memoryStore(t *testing.T) repository.Store {
	t.Helper()
	ctx := context.Background()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, time.Now().UnixNano())
	store, err := repository.Open(ctx, config.DriverSQLite, dsn,
		repository.WithMaxOpenConns(1),
		repository.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func startService(t *testing.T, store repository.Store, opts ...service.Option) *service.Service {
	t.Helper()
	opts = append([]service.Option{
		service.WithStore(store),
		service.WithClock(func() time.Time { return now }),
	}, opts...)
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return svc
}

func stop(svc *service.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = svc.Stop(ctx)
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service that has not been started", t, func() {
		svc := service.New(service.WithWorkerCount(3), service.WithQueueSize(16), service.WithDedupeSize(32))

		Convey("Then entry points refuse to run", func() {
			_, err := svc.FindMatches(context.Background(), "x", 1)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.ListSkills(context.Background())
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("Then stats report the configuration", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["workerCount"], ShouldEqual, 3)
			So(stats["queueSize"], ShouldEqual, 16)
			So(stats["dedupeSize"], ShouldEqual, 32)
		})
	})

	Convey("Given a started service", t, func() {
		svc := startService(t, memoryStore(t))

		Convey("When it is started again it stays up", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			stop(svc)
		})

		Convey("When it is stopped", func() {
			So(svc.Stop(context.Background()), ShouldBeNil)

			Convey("Then it is marked as stopped and a second stop is a no-op", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Stop(context.Background()), ShouldBeNil)
			})
		})
	})

	Convey("Given a configuration with an unknown driver", t, func() {
		cfg := config.New()
		cfg.StoreDriver = "mongo"
		svc := service.New(service.WithConfig(cfg))

		Convey("Then Start fails", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, repository.ErrUnknownDriver), ShouldBeTrue)
		})
	})
}

func TestService_Matching(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded store", t, func() {
		store := memoryStore(t)
		f := &seed.Fixture{
			Users: []seed.UserFixture{
				{ID: "00000000-0000-4000-8000-000000000001", FirstName: "Vi", LastName: "Ewer", Birthdate: "1990-01-01", Gender: "F", TZName: "Asia/Singapore", Teaches: []string{"Go", "SQL"}, Learns: []string{"Piano", "Chess"}},
				{ID: "00000000-0000-4000-8000-000000000002", FirstName: "Ca", LastName: "Two", Birthdate: "1991-01-01", Gender: "M", TZName: "Asia/Shanghai", Teaches: []string{"Piano", "Chess"}, Learns: []string{"Go", "SQL"}},
				{ID: "00000000-0000-4000-8000-000000000003", FirstName: "Ca", LastName: "Three", Birthdate: "1970-01-01", Gender: "M", TZName: "America/New_York", Teaches: []string{"Piano"}, Learns: []string{"Go"}},
				{ID: "00000000-0000-4000-8000-000000000004", FirstName: "No", LastName: "Overlap", Birthdate: "1990-01-01", Gender: "O", Teaches: []string{"Dance"}, Learns: []string{"Knitting"}},
			},
		}
		_, err := seed.Apply(ctx, store, f, now, nil)
		So(err, ShouldBeNil)

		svc := startService(t, store)
		defer stop(svc)
		viewer := f.Users[0].ID

		Convey("When matches are requested", func() {
			resp, err := svc.FindMatches(ctx, viewer, 10)

			Convey("Then mutual candidates are ranked best first", func() {
				So(err, ShouldBeNil)
				So(resp.Total, ShouldEqual, 2)
				So(resp.SearchPoolSize, ShouldEqual, 2)
				So(resp.Candidates[0].UserID, ShouldEqual, f.Users[1].ID)
				So(resp.Candidates[0].FinalScore, ShouldBeGreaterThan, resp.Candidates[1].FinalScore)
				So(resp.Candidates[0].Features.Timezone, ShouldEqual, 1.0)
				So(resp.Candidates[0].Features.Embedding, ShouldEqual, 0.5)
			})
		})

		Convey("When no limit is given the configured default applies", func() {
			resp, err := svc.FindMatches(ctx, viewer, 0)
			So(err, ShouldBeNil)
			So(resp.Total, ShouldEqual, 2)
		})

		Convey("When the limit is above the configured maximum", func() {
			_, err := svc.FindMatches(ctx, viewer, 101)
			So(errors.Is(err, service.ErrLimitTooBig), ShouldBeTrue)
		})

		Convey("When a swipe is recorded", func() {
			err := svc.RecordSwipe(ctx, viewer, f.Users[1].ID, model.SwipeOffered)
			So(err, ShouldBeNil)

			swipes, err := store.CandidateSwipesSince(ctx, []string{f.Users[1].ID}, now.AddDate(0, 0, -1))
			So(err, ShouldBeNil)
			So(len(swipes), ShouldEqual, 1)
		})

		Convey("When candidate details are requested", func() {
			d, err := svc.GetCandidateDetails(ctx, f.Users[1].ID, viewer)
			So(err, ShouldBeNil)
			So(d.Candidate.FirstName, ShouldEqual, "Ca")
			So(len(d.MutualSkills.TeachesMe), ShouldEqual, 2)
			So(len(d.MutualSkills.LearnsFromMe), ShouldEqual, 2)
		})
	})
}

func TestService_Onboarding(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		store := memoryStore(t)
		svc := startService(t, store)
		defer stop(svc)

		Convey("When a user signs up with a profile URL", func() {
			u, err := svc.CreateUser(ctx, users.CreateUserRequest{
				FirstName:     "Ada",
				LastName:      "Lovelace",
				Birthdate:     "1990-12-10",
				Gender:        "F",
				LinkedInURL:   "https://www.linkedin.com/in/ada",
				SkillsToTeach: []string{"Go"},
				SkillsToLearn: []string{"Piano"},
			})
			So(err, ShouldBeNil)

			Convey("Then the profile is onboarded", func() {
				p, err := svc.GetProfile(ctx, u.ID)
				So(err, ShouldBeNil)
				So(p.IsOnboarded, ShouldBeTrue)
				So(p.User.TZName, ShouldEqual, "Asia/Singapore")
			})

			Convey("Then the skills are in the catalog", func() {
				skills, err := svc.ListSkills(ctx)
				So(err, ShouldBeNil)
				So(len(skills), ShouldEqual, 2)
			})

			Convey("Then a worker dispatches the enrichment record", func() {
				deadline := time.Now().Add(5 * time.Second)
				var dispatched bool
				for time.Now().Before(deadline) {
					stats := svc.GetStats()
					if stats["enrichmentsProcessed"].(int64) == 1 {
						dispatched = true
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				So(dispatched, ShouldBeTrue)
			})
		})

		Convey("When an unknown user is looked up", func() {
			p, err := svc.GetProfile(ctx, "00000000-0000-4000-8000-000000000999")
			So(err, ShouldBeNil)
			So(p.IsOnboarded, ShouldBeFalse)
		})
	})
}
