package layout

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-stage/common"
	"github.com/Carmen-Shannon/oxy-stage/engine"
	"github.com/Carmen-Shannon/oxy-stage/engine/catalog"
	"github.com/Carmen-Shannon/oxy-stage/engine/config"
	"github.com/Carmen-Shannon/oxy-stage/engine/gate"
	"github.com/Carmen-Shannon/oxy-stage/engine/loader"
	"github.com/Carmen-Shannon/oxy-stage/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-stage/engine/stage"
	"github.com/Carmen-Shannon/oxy-stage/engine/tween"
	"github.com/Carmen-Shannon/oxy-stage/engine/unlock"
	"github.com/Carmen-Shannon/oxy-stage/engine/window"
)

// placeholderLoader answers every request with the placeholder figure.
type placeholderLoader struct{}

func (placeholderLoader) Load(_ context.Context, d catalog.Descriptor, opts loader.Options) (*loader.Asset, error) {
	return &loader.Asset{Descriptor: d, Root: loader.Placeholder(d, opts.Shadows), Placeholder: true}, nil
}

type fixture struct {
	host     engine.Host
	canvas   *renderertest.Canvas
	factory  SessionFactory
	sessions []stage.Session

	// overlapped is set when a session was created while another was still live.
	overlapped bool
	// failNext makes the next factory call fail.
	failNext bool
}

var errFactory = errors.New("no adapter")

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		host:   engine.NewHost(engine.WithFrameRate(0)),
		canvas: renderertest.NewCanvas(640, 480),
	}
	caps := gate.Capabilities{
		NewRenderer: renderertest.Factory(&renderertest.Backend{}, nil),
		NewTweens:   tween.NewEngine,
		Loader:      loader.NewAsync(f.host, placeholderLoader{}, 1),
	}
	inner := NewSessionFactory(f.host, caps)
	f.factory = func(canvas window.Canvas, options ...stage.SessionBuilderOption) (stage.Session, error) {
		if f.live() > 0 {
			f.overlapped = true
		}
		if f.failNext {
			f.failNext = false
			return nil, errFactory
		}
		s, err := inner(canvas, options...)
		if err == nil {
			f.sessions = append(f.sessions, s)
		}
		return s, err
	}
	return f
}

func (f *fixture) live() int {
	n := 0
	for _, s := range f.sessions {
		if !s.Disposed() {
			n++
		}
	}
	return n
}

func (f *fixture) settle(s stage.Session) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		f.host.Step()
		if !s.Loading() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func TestSessionFactoryAppliesDefaultsFirst(t *testing.T) {
	f := newFixture(t)
	caps := gate.Capabilities{
		NewRenderer: renderertest.Factory(&renderertest.Backend{}, nil),
		NewTweens:   tween.NewEngine,
		Loader:      loader.NewAsync(f.host, placeholderLoader{}, 1),
	}
	factory := NewSessionFactory(f.host, caps, stage.WithQuality(config.QualityLow), stage.WithAutoRotate(false))
	s, err := factory(f.canvas, stage.WithAutoRotate(true))
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	defer s.Dispose()
	if s.Quality() != config.QualityLow || !s.AutoRotate() {
		t.Fatalf("quality %s autoRotate %v", s.Quality(), s.AutoRotate())
	}
}

func TestNewLobbyRequiresDescriptors(t *testing.T) {
	f := newFixture(t)
	if _, err := NewLobby(f.factory, f.canvas, nil); !errors.Is(err, ErrNoDescriptors) {
		t.Fatalf("err = %v, want ErrNoDescriptors", err)
	}
}

func TestLobbyCyclesCharacters(t *testing.T) {
	f := newFixture(t)
	descriptors := catalog.Default()
	l, err := NewLobby(f.factory, f.canvas, descriptors)
	if err != nil {
		t.Fatalf("NewLobby: %v", err)
	}
	defer l.Dispose()

	if got := l.Session().Descriptor().ID; got != descriptors[0].ID {
		t.Fatalf("first load = %q", got)
	}
	if got := l.Previous(); got != len(descriptors)-1 {
		t.Fatalf("previous from 0 = %d", got)
	}
	if got := l.Next(); got != 0 {
		t.Fatalf("next from last = %d", got)
	}
	if !l.HandleKey(common.KeyRight) || l.Index() != 1 {
		t.Fatalf("right arrow: index %d", l.Index())
	}
	if l.Session().Descriptor().ID != descriptors[1].ID {
		t.Fatal("selection did not reload the preview")
	}
	gen := l.Session().Generation()
	l.Select(1)
	if l.Session().Generation() != gen {
		t.Fatal("reselecting the current character must not reload")
	}
	if f.live() != 1 {
		t.Fatalf("live sessions = %d, want 1", f.live())
	}
	if l.HandleKey(0) {
		t.Fatal("unmapped key reported handled")
	}
}

func TestLobbyToggleAutoRotate(t *testing.T) {
	f := newFixture(t)
	l, err := NewLobby(f.factory, f.canvas, catalog.Default(), WithLobbyAutoRotate(true))
	if err != nil {
		t.Fatalf("NewLobby: %v", err)
	}
	defer l.Dispose()

	l.HandleKey(common.KeyR)
	if l.Session().AutoRotate() {
		t.Fatal("R should turn auto-rotate off")
	}
	if !l.ToggleAutoRotate() || !l.Session().AutoRotate() {
		t.Fatal("toggle should turn auto-rotate back on")
	}
}

func TestLobbySetQualityRebuildsSession(t *testing.T) {
	f := newFixture(t)
	l, err := NewLobby(f.factory, f.canvas, catalog.Default(), WithLobbyQuality(config.QualityHigh))
	if err != nil {
		t.Fatalf("NewLobby: %v", err)
	}
	defer l.Dispose()
	l.Select(2)
	old := l.Session()

	l.HandleKey(common.KeyQ)
	if l.Quality() != config.QualityLow || l.Session().Quality() != config.QualityLow {
		t.Fatalf("quality = %s", l.Quality())
	}
	if l.Session() == old || !old.Disposed() {
		t.Fatal("quality change should replace the session")
	}
	if l.Session().Descriptor().ID != catalog.Default()[2].ID {
		t.Fatal("rebuilt session lost the selection")
	}
	if f.live() != 1 || f.canvas.ResizeListenerCount() != 1 {
		t.Fatalf("live %d listeners %d", f.live(), f.canvas.ResizeListenerCount())
	}

	if err := l.SetQuality(config.QualityLow); err != nil || len(f.sessions) != 2 {
		t.Fatal("setting the same quality must not rebuild")
	}
	if f.overlapped {
		t.Fatal("a new session was created while the old one still held the canvas")
	}
}

func TestLobbySetQualityFailureRestoresPreview(t *testing.T) {
	f := newFixture(t)
	l, err := NewLobby(f.factory, f.canvas, catalog.Default(), WithLobbyQuality(config.QualityHigh))
	if err != nil {
		t.Fatalf("NewLobby: %v", err)
	}
	defer l.Dispose()
	l.Select(1)

	f.failNext = true
	if err := l.SetQuality(config.QualityLow); !errors.Is(err, errFactory) {
		t.Fatalf("err = %v, want the factory error", err)
	}
	if l.Quality() != config.QualityHigh || l.Session().Quality() != config.QualityHigh {
		t.Fatalf("quality = %s, want the previous tier", l.Quality())
	}
	if l.Session().Disposed() || l.Session().Descriptor().ID != catalog.Default()[1].ID {
		t.Fatal("preview was not restored at the previous quality")
	}
	if f.live() != 1 || f.overlapped {
		t.Fatalf("live %d overlapped %v", f.live(), f.overlapped)
	}
}

func TestLobbyEquipAndPurchase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "unlock.db")
	store, err := unlock.Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	f := newFixture(t)
	descriptors := catalog.Default()
	l, err := NewLobby(f.factory, f.canvas, descriptors, WithPurchaseStore(store))
	if err != nil {
		t.Fatalf("NewLobby: %v", err)
	}
	defer l.Dispose()

	premium := descriptors[0]
	if !premium.IsPremium {
		t.Fatal("fixture expects the first default character to be premium")
	}
	if got := l.Equip(); got != EquipPurchaseRequired {
		t.Fatalf("equip locked premium = %s", got)
	}
	if !l.HandleKey(common.KeyP) {
		t.Fatal("P not handled")
	}
	if got := l.Equip(); got != EquipSelected || l.Equipped() != premium.ID {
		t.Fatalf("equip after purchase = %s, equipped %q", got, l.Equipped())
	}

	set, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !set.Has(premium.ID) {
		t.Fatal("purchase not persisted")
	}

	if err := l.ConfirmPurchase(ctx, "nobody"); !errors.Is(err, ErrUnknownCharacter) {
		t.Fatalf("err = %v, want ErrUnknownCharacter", err)
	}

	l.Next()
	if got := l.Equip(); got != EquipSelected {
		t.Fatalf("equip free character = %s", got)
	}
}

func TestLobbyAnimationKeys(t *testing.T) {
	f := newFixture(t)
	l, err := NewLobby(f.factory, f.canvas, catalog.Default())
	if err != nil {
		t.Fatalf("NewLobby: %v", err)
	}
	defer l.Dispose()
	if !f.settle(l.Session()) {
		t.Fatal("load never completed")
	}
	if !l.HandleKey(common.KeyDown) || !l.HandleKey(common.KeyUp) {
		t.Fatal("clip keys not handled")
	}
	if l.Session().AnimationIndex() != 0 {
		t.Fatalf("placeholder has no clips, index = %d", l.Session().AnimationIndex())
	}
}

func TestGalleryScrollMovesSession(t *testing.T) {
	f := newFixture(t)
	descriptors := catalog.Default()
	g, err := NewGallery(f.host, f.factory, f.canvas, descriptors)
	if err != nil {
		t.Fatalf("NewGallery: %v", err)
	}
	defer g.Dispose()

	if g.Active() != 0 || g.Session().Descriptor().ID != descriptors[0].ID {
		t.Fatalf("initial slot %d", g.Active())
	}

	g.ScrollTo(2)
	for i := 0; i < 180; i++ {
		g.Tick()
	}
	if g.Active() != 2 {
		t.Fatalf("active slot = %d after settling, position %v", g.Active(), g.Position())
	}
	if d := g.Position() - 2; d > 0.01 || d < -0.01 {
		t.Fatalf("position = %v, want 2", g.Position())
	}
	if g.Session().Descriptor().ID != descriptors[2].ID {
		t.Fatalf("session shows %q", g.Session().Descriptor().ID)
	}
	if f.live() != 1 || f.canvas.ResizeListenerCount() != 1 {
		t.Fatalf("live %d listeners %d, want one session", f.live(), f.canvas.ResizeListenerCount())
	}
	if f.overlapped {
		t.Fatal("slot switch created a session while the previous one was live")
	}
}

func TestGalleryFailedSlotDoesNotRetryEveryFrame(t *testing.T) {
	f := newFixture(t)
	g, err := NewGallery(f.host, f.factory, f.canvas, catalog.Default())
	if err != nil {
		t.Fatalf("NewGallery: %v", err)
	}
	defer g.Dispose()

	f.failNext = true
	g.ScrollTo(1)
	for i := 0; i < 120; i++ {
		g.Tick()
	}
	if g.Active() != 1 || len(f.sessions) != 1 {
		t.Fatalf("active %d, sessions created %d", g.Active(), len(f.sessions))
	}
	if f.live() != 0 || f.canvas.ResizeListenerCount() != 0 {
		t.Fatalf("live %d listeners %d", f.live(), f.canvas.ResizeListenerCount())
	}

	g.ScrollTo(2)
	for i := 0; i < 120; i++ {
		g.Tick()
	}
	if g.Active() != 2 || f.live() != 1 || g.Session().Descriptor().ID != catalog.Default()[2].ID {
		t.Fatalf("active %d live %d", g.Active(), f.live())
	}
}

func TestGalleryClampsTarget(t *testing.T) {
	f := newFixture(t)
	descriptors := catalog.Default()
	g, err := NewGallery(f.host, f.factory, f.canvas, descriptors, WithScrollStep(1))
	if err != nil {
		t.Fatalf("NewGallery: %v", err)
	}
	defer g.Dispose()

	g.Scroll(1)
	if g.Target() != 0 {
		t.Fatalf("target = %v, want clamp at 0", g.Target())
	}
	g.Scroll(-100)
	if int(g.Target()) != len(descriptors)-1 {
		t.Fatalf("target = %v, want clamp at last slot", g.Target())
	}
	g.HandleKey(common.KeyUp)
	if int(g.Target()) != len(descriptors)-2 {
		t.Fatalf("up arrow target = %v", g.Target())
	}
}

func TestGalleryDisposeStopsEverything(t *testing.T) {
	f := newFixture(t)
	g, err := NewGallery(f.host, f.factory, f.canvas, catalog.Default())
	if err != nil {
		t.Fatalf("NewGallery: %v", err)
	}
	if f.host.PendingFrames() == 0 {
		t.Fatal("gallery should tick on host frames")
	}
	g.Dispose()
	g.Dispose()

	if f.host.PendingFrames() != 0 {
		t.Fatalf("pending frames = %d", f.host.PendingFrames())
	}
	if f.live() != 0 || f.canvas.ResizeListenerCount() != 0 {
		t.Fatalf("live %d listeners %d", f.live(), f.canvas.ResizeListenerCount())
	}
}
