package imagestate

import (
	"sync"
	"testing"
)

func TestResetRestoresDefaultsAndKeepsSource(t *testing.T) {
	src := &Source{Name: "me.jpg"}
	st := ImageState{Source: src, Zoom: 240, Rotation: -270, OffsetX: 12, OffsetY: -40}

	once := Reduce(st, Reset{})
	if once.Source != src {
		t.Fatalf("reset dropped the source")
	}
	if !once.IsDefaultTransform() {
		t.Fatalf("unexpected transform after reset: %v", once)
	}
	twice := Reduce(once, Reset{})
	if twice != once {
		t.Fatalf("reset is not idempotent: %v vs %v", twice, once)
	}
}

func TestSetSourceResetsTransform(t *testing.T) {
	st := ImageState{Source: &Source{Name: "old"}, Zoom: 300, Rotation: 90, OffsetX: 5, OffsetY: 6}
	next := Reduce(st, SetSource{Source: &Source{Name: "new"}})
	if next.Source.Name != "new" {
		t.Fatalf("source not replaced: %v", next)
	}
	if !next.IsDefaultTransform() {
		t.Fatalf("transform not reset: %v", next)
	}
}

func TestFourRotationsWrap(t *testing.T) {
	for _, start := range []int{0, 90, -90, 450} {
		st := ImageState{Source: &Source{}, Zoom: 100, Rotation: start}
		for i := 0; i < 4; i++ {
			st = Reduce(st, Rotate{})
		}
		if (st.Rotation-start)%360 != 0 {
			t.Errorf("start %d: rotation %d not congruent", start, st.Rotation)
		}
		want := ImageState{Rotation: start}.NormalizedRotation()
		if st.NormalizedRotation() != want {
			t.Errorf("start %d: normalized %d, want %d", start, st.NormalizedRotation(), want)
		}
	}
}

func TestRotateStepsCounterClockwise(t *testing.T) {
	st := Reduce(New(), Rotate{})
	if st.Rotation != -90 {
		t.Fatalf("rotation %d, want -90", st.Rotation)
	}
	if st.NormalizedRotation() != 270 {
		t.Fatalf("normalized %d, want 270", st.NormalizedRotation())
	}
}

func TestZoomAndOffsetTransitions(t *testing.T) {
	st := Reduce(New(), SetZoom{Zoom: 10})
	if st.Zoom != 10 || st.Scale() != 0.1 {
		t.Fatalf("zoom 10 gave %v scale %v", st.Zoom, st.Scale())
	}
	st = Reduce(st, SetZoom{Zoom: 500})
	if st.Scale() != 5 {
		t.Fatalf("zoom 500 gave scale %v", st.Scale())
	}
	st = Reduce(st, SetOffset{X: 50, Y: -30})
	st = Reduce(st, Nudge{DX: -10, DY: 10})
	if st.OffsetX != 40 || st.OffsetY != -20 {
		t.Fatalf("offset (%v,%v), want (40,-20)", st.OffsetX, st.OffsetY)
	}
	if got := Reduce(st, nil); got != st {
		t.Fatalf("nil action changed state")
	}
}

func TestClampZoom(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{5, MinZoom},
		{10, 10},
		{250, 250},
		{500, 500},
		{900, MaxZoom},
	}
	for _, tc := range tests {
		if got := ClampZoom(tc.in); got != tc.want {
			t.Errorf("ClampZoom(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestStoreAcceptsUnclampedValues(t *testing.T) {
	s := NewStore()
	st := s.Dispatch(SetZoom{Zoom: 2})
	if st.Zoom != 2 {
		t.Fatalf("store clamped zoom to %v", st.Zoom)
	}
}

func TestStoreUpdateIsAtomic(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispatch(Nudge{DX: 1, DY: -1})
		}()
	}
	wg.Wait()
	st := s.State()
	if st.OffsetX != 100 || st.OffsetY != -100 {
		t.Fatalf("lost updates: offset (%v,%v)", st.OffsetX, st.OffsetY)
	}
}

func TestStoreSubscribeOrderAndCancel(t *testing.T) {
	s := NewStore()
	var calls []string
	cancelA := s.Subscribe(func(ImageState) { calls = append(calls, "a") })
	s.Subscribe(func(st ImageState) { calls = append(calls, "b") })

	s.Dispatch(Rotate{})
	cancelA()
	s.Dispatch(Reset{})

	want := []string{"a", "b", "b"}
	if len(calls) != len(want) {
		t.Fatalf("calls %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls %v, want %v", calls, want)
		}
	}
}

func TestSubscriberSeesNewState(t *testing.T) {
	s := NewStore()
	var seen ImageState
	s.Subscribe(func(st ImageState) { seen = st })
	s.Dispatch(SetZoom{Zoom: 150})
	if seen.Zoom != 150 {
		t.Fatalf("subscriber saw zoom %v", seen.Zoom)
	}
}
