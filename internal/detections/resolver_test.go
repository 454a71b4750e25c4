package detections

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

type fakeRepo struct {
	videos map[int64]*Video
	events map[int64][]DetectionEvent

	acquireErr error
	videoErr   error
	listErr    error

	sessions []*fakeSession
}

func (r *fakeRepo) Acquire(ctx context.Context) (Session, error) {
	if r.acquireErr != nil {
		return nil, r.acquireErr
	}
	s := &fakeSession{repo: r}
	r.sessions = append(r.sessions, s)
	return s, nil
}

type fakeSession struct {
	repo     *fakeRepo
	closed   bool
	searched []string
	listed   int
}

func (s *fakeSession) GetVideo(ctx context.Context, videoID int64) (*Video, error) {
	if s.repo.videoErr != nil {
		return nil, s.repo.videoErr
	}
	v, ok := s.repo.videos[videoID]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (s *fakeSession) ListDetections(ctx context.Context, videoID int64) ([]DetectionEvent, error) {
	s.listed++
	if s.repo.listErr != nil {
		return nil, s.repo.listErr
	}
	return s.repo.events[videoID], nil
}

func (s *fakeSession) SearchDetections(ctx context.Context, videoID int64, objectName string) ([]DetectionEvent, error) {
	s.searched = append(s.searched, objectName)
	if s.repo.listErr != nil {
		return nil, s.repo.listErr
	}
	var out []DetectionEvent
	for _, ev := range s.repo.events[videoID] {
		if strings.Contains(strings.ToLower(ev.ObjectName), strings.ToLower(objectName)) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeLocator struct {
	calls []string
	url   *string
}

func (l *fakeLocator) Resolve(ctx context.Context, path string) *string {
	l.calls = append(l.calls, path)
	return l.url
}

// video42 is the worked example: two cups out of order and one mug.
func video42() *fakeRepo {
	return &fakeRepo{
		videos: map[int64]*Video{
			42: {ID: 42, Path: "/clips/video42.mp4", Name: "video42", Duration: f64(18)},
		},
		events: map[int64][]DetectionEvent{
			42: {
				{ObjectName: "cup", StartTimestamp: f64(1.5), Frame: i64(30)},
				{ObjectName: "mug", StartTimestamp: f64(3.0), Frame: i64(60)},
				{ObjectName: "cup", StartTimestamp: f64(0.2), Frame: i64(5)},
			},
		},
	}
}

func TestResolver_GroupedExample(t *testing.T) {
	repo := video42()
	url := "https://cdn.example.com/clips/video42.mp4"
	loc := &fakeLocator{url: &url}

	res, err := NewResolver(repo, loc, nil).Resolve(context.Background(), 42, "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if res.Mode != ModeGrouped {
		t.Fatalf("Mode = %v, want grouped", res.Mode)
	}

	want := []ObjectTimesteps{
		{Object: "cup", Timesteps: []Timestep{
			{Timestamp: 0.2, Frame: i64(5)},
			{Timestamp: 1.5, Frame: i64(30)},
		}},
		{Object: "mug", Timesteps: []Timestep{
			{Timestamp: 3.0, Frame: i64(60)},
		}},
	}
	if !reflect.DeepEqual(res.Groups, want) {
		t.Errorf("Groups = %+v, want %+v", res.Groups, want)
	}

	if res.VideoURL == nil || *res.VideoURL != url {
		t.Errorf("VideoURL = %v, want %q", res.VideoURL, url)
	}
	if len(loc.calls) != 1 || loc.calls[0] != "/clips/video42.mp4" {
		t.Errorf("locator calls = %v, want exactly one with the stored path", loc.calls)
	}
	if res.Video.Name != "video42" || res.Video.Duration == nil || *res.Video.Duration != 18 {
		t.Errorf("Video = %+v", res.Video)
	}
}

func TestResolver_FilteredExample(t *testing.T) {
	repo := video42()
	loc := &fakeLocator{}

	res, err := NewResolver(repo, loc, nil).Resolve(context.Background(), 42, "  Cup ")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if res.Mode != ModeFiltered {
		t.Fatalf("Mode = %v, want filtered", res.Mode)
	}

	want := []Timestep{
		{Timestamp: 0.2, Frame: i64(5)},
		{Timestamp: 1.5, Frame: i64(30)},
	}
	if !reflect.DeepEqual(res.Timesteps, want) {
		t.Errorf("Timesteps = %+v, want %+v", res.Timesteps, want)
	}

	sess := repo.sessions[0]
	if len(sess.searched) != 1 || sess.searched[0] != "Cup" {
		t.Errorf("search filter = %v, want trimmed [Cup]", sess.searched)
	}
	if sess.listed != 0 {
		t.Error("grouped listing should not run in filtered mode")
	}
	if res.VideoURL != nil {
		t.Errorf("VideoURL = %q, want nil when locator yields nothing", *res.VideoURL)
	}
}

func TestResolver_BlankFilterIsGrouped(t *testing.T) {
	repo := video42()

	res, err := NewResolver(repo, &fakeLocator{}, nil).Resolve(context.Background(), 42, " \t ")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Mode != ModeGrouped {
		t.Errorf("Mode = %v, want grouped for whitespace filter", res.Mode)
	}
	if len(repo.sessions[0].searched) != 0 {
		t.Error("search should not run for a blank filter")
	}
}

func TestResolver_NotFound(t *testing.T) {
	repo := video42()
	loc := &fakeLocator{}

	res, err := NewResolver(repo, loc, nil).Resolve(context.Background(), 999, "")
	if res != nil {
		t.Errorf("Resolve() result = %+v, want nil", res)
	}
	if KindOf(err) != KindNotFound {
		t.Fatalf("KindOf(err) = %v, want not_found (err = %v)", KindOf(err), err)
	}
	if err.Error() != "Video with ID 999 not found" {
		t.Errorf("error = %q", err.Error())
	}
	if !repo.sessions[0].closed {
		t.Error("session not released on not-found path")
	}
	if len(loc.calls) != 0 {
		t.Error("locator should not run when the video is missing")
	}
}

func TestResolver_InvalidID(t *testing.T) {
	repo := video42()

	for _, id := range []int64{0, -7} {
		_, err := NewResolver(repo, &fakeLocator{}, nil).Resolve(context.Background(), id, "")
		if KindOf(err) != KindInvalidInput {
			t.Errorf("Resolve(%d) kind = %v, want invalid_input", id, KindOf(err))
		}
	}
	if len(repo.sessions) != 0 {
		t.Error("store accessed for an invalid id")
	}
}

func TestResolver_StoreFailures(t *testing.T) {
	boom := errors.New("connection reset by peer")

	tests := []struct {
		name   string
		mutate func(r *fakeRepo)
		filter string
	}{
		{"acquire", func(r *fakeRepo) { r.acquireErr = boom }, ""},
		{"video lookup", func(r *fakeRepo) { r.videoErr = boom }, ""},
		{"grouped query", func(r *fakeRepo) { r.listErr = boom }, ""},
		{"filtered query", func(r *fakeRepo) { r.listErr = boom }, "cup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := video42()
			tt.mutate(repo)
			loc := &fakeLocator{}

			res, err := NewResolver(repo, loc, nil).Resolve(context.Background(), 42, tt.filter)
			if res != nil {
				t.Error("partial result returned alongside an error")
			}
			if KindOf(err) != KindQueryFailed {
				t.Fatalf("KindOf(err) = %v, want query_failed", KindOf(err))
			}
			if !errors.Is(err, boom) {
				t.Error("underlying error not wrapped")
			}
			if err.Error() != boom.Error() {
				t.Errorf("message = %q, want underlying %q", err.Error(), boom.Error())
			}
			for _, s := range repo.sessions {
				if !s.closed {
					t.Error("session not released on failure")
				}
			}
			if len(loc.calls) != 0 {
				t.Error("locator should not run after a store failure")
			}
		})
	}
}

func TestResolver_EmptyResultsAreEmptySlices(t *testing.T) {
	repo := &fakeRepo{videos: map[int64]*Video{7: {ID: 7, Name: "empty"}}}

	grouped, err := NewResolver(repo, &fakeLocator{}, nil).Resolve(context.Background(), 7, "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if g, ok := grouped.Data().([]ObjectTimesteps); !ok || g == nil || len(g) != 0 {
		t.Errorf("grouped Data() = %#v, want empty slice", grouped.Data())
	}

	filtered, err := NewResolver(repo, &fakeLocator{}, nil).Resolve(context.Background(), 7, "cup")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if ts, ok := filtered.Data().([]Timestep); !ok || ts == nil || len(ts) != 0 {
		t.Errorf("filtered Data() = %#v, want empty slice", filtered.Data())
	}
}

func TestResolver_NilLocator(t *testing.T) {
	res, err := NewResolver(video42(), nil, nil).Resolve(context.Background(), 42, "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.VideoURL != nil {
		t.Error("VideoURL should be nil without a locator")
	}
}
