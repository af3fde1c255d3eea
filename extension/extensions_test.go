package extension

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	counterTag struct{}
	gaugeTag   struct{}
	speedTag   struct{}
	peersTag   struct{}
	latencyTag struct{}
	pausedTag  struct{}
)

type (
	Counter = Value[counterTag, int]
	Gauge   = Value[gaugeTag, int]
	Speed   = Value[speedTag, string]
	Peers   = Value[peersTag, int]
	Latency = Value[latencyTag, float64]
	Paused  = Marker[pausedTag]
)

// closingExt counts how often it is released.
type closingExt struct {
	err    error
	name   string
	closed int
}

func (c *closingExt) AsAny() any            { return c }
func (c *closingExt) ExtensionType() TypeID { return TypeFor[*closingExt]() }
func (c *closingExt) Close() error {
	c.closed++
	return c.err
}

func TestRegister_RoundTrip(t *testing.T) {
	exts := New()
	exts.Register(Wrap[counterTag](7))

	c, ok := Get[*Counter](exts)
	require.True(t, ok)
	assert.Equal(t, 7, c.Inner)

	*c.Deref() += 3

	again, ok := Get[*Counter](exts)
	require.True(t, ok)
	assert.Equal(t, 10, again.Load())
	assert.Same(t, c, again)
}

func TestRegister_DistinctTypesDoNotCollide(t *testing.T) {
	exts := New()
	exts.Register(Wrap[counterTag](1))
	exts.Register(Wrap[gaugeTag](2))

	assert.Equal(t, 2, exts.Len())

	c, ok := Get[*Counter](exts)
	require.True(t, ok)
	g, ok := Get[*Gauge](exts)
	require.True(t, ok)
	assert.Equal(t, 1, c.Inner)
	assert.Equal(t, 2, g.Inner)
}

func TestRegister_NilIgnored(t *testing.T) {
	exts := New()
	exts.Register(nil)
	assert.Equal(t, 0, exts.Len())
}

func TestRegister_OverwriteReleasesPrevious(t *testing.T) {
	exts := New()
	first := &closingExt{name: "first"}
	second := &closingExt{name: "second"}

	exts.Register(first)
	exts.Register(second)

	assert.Equal(t, 1, first.closed, "replaced instance is released once")
	assert.Equal(t, 0, second.closed)

	got, ok := Get[*closingExt](exts)
	require.True(t, ok)
	assert.Equal(t, "second", got.name)
}

func TestRegister_SameInstanceNotReleased(t *testing.T) {
	exts := New()
	ext := &closingExt{}

	exts.Register(ext)
	exts.Register(ext)

	assert.Equal(t, 0, ext.closed)
	assert.Equal(t, 1, exts.Len())
}

func TestRegisterWithTypeID_Duplicate(t *testing.T) {
	exts := New()
	require.NoError(t, exts.RegisterWithTypeID(TypeFor[*Counter](), Wrap[counterTag](1)))

	err := exts.RegisterWithTypeID(TypeFor[*Counter](), Wrap[counterTag](2))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "register", regErr.Op)
	assert.Equal(t, TypeFor[*Counter](), regErr.Type)

	c, ok := Get[*Counter](exts)
	require.True(t, ok)
	assert.Equal(t, 1, c.Inner, "original instance is untouched")
}

func TestRegisterWithTypeID_Invalid(t *testing.T) {
	exts := New()

	err := exts.RegisterWithTypeID(TypeID{}, Wrap[counterTag](1))
	assert.ErrorIs(t, err, ErrInvalidExtension)

	err = exts.RegisterWithTypeID(TypeFor[*Counter](), nil)
	assert.ErrorIs(t, err, ErrInvalidExtension)

	assert.Equal(t, 0, exts.Len())
}

func TestGet_FailsClosedOnMismatchedIdentity(t *testing.T) {
	exts := New()
	// A counter stored under the gauge identity must not come back as a gauge.
	require.NoError(t, exts.RegisterWithTypeID(TypeFor[*Gauge](), Wrap[counterTag](1)))

	_, ok := Get[*Gauge](exts)
	assert.False(t, ok)
	_, ok = Get[*Counter](exts)
	assert.False(t, ok)
}

func TestGet_NilRegistry(t *testing.T) {
	var exts *Extensions
	v, ok := exts.Get(TypeFor[*Counter]())
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, 0, exts.Len())
	assert.False(t, exts.Contains(TypeFor[*Counter]()))
}

func TestZeroValueUsable(t *testing.T) {
	var exts Extensions
	exts.Register(Wrap[counterTag](1))
	require.NoError(t, exts.RegisterWithTypeID(TypeFor[*Gauge](), Wrap[gaugeTag](2)))
	assert.Equal(t, 2, exts.Len())
}

func TestDeregister(t *testing.T) {
	exts := New()
	ext := &closingExt{}
	exts.Register(ext)

	assert.True(t, exts.Deregister(TypeFor[*closingExt]()))
	assert.Equal(t, 1, ext.closed)
	assert.False(t, exts.Contains(TypeFor[*closingExt]()))

	_, ok := Get[*closingExt](exts)
	assert.False(t, ok)

	assert.False(t, exts.Deregister(TypeFor[*closingExt]()), "second removal reports absence")
	assert.Equal(t, 1, ext.closed)
}

func TestDeregisterExtensionByTypeID_Missing(t *testing.T) {
	exts := New()
	err := exts.DeregisterExtensionByTypeID(TypeFor[*Counter]())
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestMerge(t *testing.T) {
	a := New()
	a.Register(Wrap[counterTag](1))

	b := New()
	b.Register(Wrap[counterTag](2))
	b.Register(Wrap[gaugeTag](5))

	a.Merge(b)

	c, ok := Get[*Counter](a)
	require.True(t, ok)
	assert.Equal(t, 2, c.Inner)

	g, ok := Get[*Gauge](a)
	require.True(t, ok)
	assert.Equal(t, 5, g.Inner)

	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 0, b.Len())
}

func TestMerge_ReleasesDisplacedOnly(t *testing.T) {
	displaced := &closingExt{name: "a"}
	moved := &closingExt{name: "b"}

	a := New()
	a.Register(displaced)
	b := New()
	b.Register(moved)

	a.Merge(b)

	assert.Equal(t, 1, displaced.closed)
	assert.Equal(t, 0, moved.closed)

	got, ok := Get[*closingExt](a)
	require.True(t, ok)
	assert.Same(t, moved, got)
}

func TestMerge_SelfAndNil(t *testing.T) {
	a := New()
	a.Register(Wrap[counterTag](1))

	a.Merge(a)
	a.Merge(nil)

	assert.Equal(t, 1, a.Len())
}

func TestExtend_LastWriterWins(t *testing.T) {
	base := New()
	base.Register(Wrap[counterTag](0))

	first := New()
	first.Register(Wrap[counterTag](1))
	first.Register(Wrap[gaugeTag](1))

	second := New()
	second.Register(Wrap[counterTag](2))

	base.Extend(first, nil, second)

	c, _ := Get[*Counter](base)
	g, _ := Get[*Gauge](base)
	assert.Equal(t, 2, c.Inner)
	assert.Equal(t, 1, g.Inner)
	assert.Equal(t, 0, first.Len())
	assert.Equal(t, 0, second.Len())
}

func TestAll_YieldsEachEntryOnceInOrder(t *testing.T) {
	exts := New()
	exts.Register(Wrap[speedTag]("bps"))
	exts.Register(Wrap[peersTag](4))
	exts.Register(Wrap[latencyTag](1.5))
	exts.Register(&Paused{})

	seen := map[TypeID]int{}
	var order []TypeID
	for id, ext := range exts.All() {
		seen[id]++
		order = append(order, id)
		assert.Equal(t, id, ext.ExtensionType())
	}

	assert.Len(t, seen, 4)
	for id, n := range seen {
		assert.Equal(t, 1, n, "entry %s yielded more than once", id)
	}
	assert.Equal(t, exts.TypeIDs(), order)
	for i := 1; i < len(order); i++ {
		assert.Negative(t, order[i-1].Compare(order[i]))
	}

	// Restartable.
	count := 0
	for range exts.All() {
		count++
	}
	assert.Equal(t, 4, count)
}

func TestAll_EarlyStopAndRemoval(t *testing.T) {
	exts := New()
	exts.Register(Wrap[counterTag](1))
	exts.Register(Wrap[gaugeTag](2))
	exts.Register(Wrap[peersTag](3))

	n := 0
	for range exts.All() {
		n++
		break
	}
	assert.Equal(t, 1, n)

	ids := exts.TypeIDs()
	var yielded []TypeID
	for id := range exts.All() {
		if id == ids[0] {
			exts.Deregister(ids[1])
		}
		yielded = append(yielded, id)
	}
	assert.Equal(t, []TypeID{ids[0], ids[2]}, yielded)
}

func TestAll_Empty(t *testing.T) {
	var exts *Extensions
	for range exts.All() {
		t.Fatal("empty registry yielded an entry")
	}
}

func TestClose(t *testing.T) {
	ok := &closingExt{}
	exts := New()
	exts.Register(ok)
	exts.Register(Wrap[counterTag](1))

	require.NoError(t, exts.Close())
	assert.Equal(t, 1, ok.closed)
	assert.Equal(t, 0, exts.Len())
}

func TestClose_JoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	exts := New()
	exts.Register(&closingExt{err: boom})

	err := exts.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, exts.Len())
}

func TestString(t *testing.T) {
	exts := New()
	assert.Equal(t, "Extensions: (0)", exts.String())
	exts.Register(Wrap[counterTag](1))
	exts.Register(Wrap[gaugeTag](1))
	assert.Equal(t, "Extensions: (2)", exts.String())
}

func TestScenario_AbsentCapability(t *testing.T) {
	exts := New()
	exts.Register(Wrap[speedTag]("bps"))
	exts.Register(Wrap[peersTag](4))

	speed, ok := Get[*Speed](exts)
	require.True(t, ok)
	assert.Equal(t, "bps", speed.Inner)

	peers, ok := Get[*Peers](exts)
	require.True(t, ok)
	assert.Equal(t, 4, peers.Inner)

	_, ok = Get[*Latency](exts)
	assert.False(t, ok)

	assert.True(t, exts.Deregister(TypeFor[*Peers]()))
	_, ok = Get[*Peers](exts)
	assert.False(t, ok, "peers is gone after deregistration")

	var ids []TypeID
	for id := range exts.All() {
		ids = append(ids, id)
	}
	assert.Equal(t, []TypeID{TypeFor[*Speed]()}, ids)
}

func TestRegister_TypedNilIgnored(t *testing.T) {
	exts := New()
	exts.Register((*Peers)(nil))
	exts.Register((*closingExt)(nil))

	assert.Zero(t, exts.Len())
	_, ok := Get[*Peers](exts)
	assert.False(t, ok)

	live := &closingExt{}
	assert.NotPanics(t, func() { exts.Register(live) })
	assert.Zero(t, live.closed)
	assert.Equal(t, 1, exts.Len())
}

func TestRegisterWithTypeID_TypedNilRejected(t *testing.T) {
	exts := New()

	err := exts.RegisterWithTypeID(TypeFor[*Peers](), (*Peers)(nil))
	assert.ErrorIs(t, err, ErrInvalidExtension)

	err = Register(exts, (*closingExt)(nil))
	assert.ErrorIs(t, err, ErrInvalidExtension)
	assert.Zero(t, exts.Len())
}

func TestNilRegistry(t *testing.T) {
	var exts *Extensions

	assert.NotPanics(t, func() {
		exts.Register(Wrap[counterTag](1))
		other := New()
		other.Register(Wrap[gaugeTag](2))
		exts.Merge(other)
		assert.Equal(t, 1, other.Len(), "merging into nil leaves the source untouched")
	})

	err := exts.RegisterWithTypeID(TypeFor[*Counter](), Wrap[counterTag](1))
	assert.ErrorIs(t, err, ErrInvalidExtension)
	assert.Zero(t, exts.Len())
	assert.False(t, exts.Deregister(TypeFor[*Counter]()))
	assert.NoError(t, exts.Close())
}

func TestErasedInstanceReRegisters(t *testing.T) {
	src := New()
	src.Register(Wrap[counterTag](9))
	src.Register(&Paused{})

	dst := New()
	for _, ext := range src.All() {
		var boxed Extension = ext
		dst.Register(boxed)
	}

	c, ok := Get[*Counter](dst)
	require.True(t, ok)
	assert.Equal(t, 9, c.Inner)
	assert.True(t, dst.Contains(TypeFor[*Paused]()))
}

func TestMarker(t *testing.T) {
	exts := New()
	_, ok := Get[*Paused](exts)
	assert.False(t, ok)

	exts.Register(&Paused{})
	_, ok = Get[*Paused](exts)
	assert.True(t, ok)
}
