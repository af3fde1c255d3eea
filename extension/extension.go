package extension

// Extension is the contract every registered capability satisfies.
//
// Implementations are normally pointer types so that a lookup returns a
// mutable reference to the instance owned by the registry. An Extension
// interface value obtained from one registry can be registered in another
// unchanged: its identity is whatever the boxed instance reports.
//
// An instance that also implements io.Closer is closed when it leaves a
// registry (overwrite, deregistration or Close).
type Extension interface {
	// AsAny returns the value a typed lookup asserts against. For pointer
	// implementations this is the receiver itself.
	AsAny() any

	// ExtensionType returns the identity the instance is stored under.
	// It must equal TypeFor[T]() where T is the type AsAny returns.
	ExtensionType() TypeID
}

// Value wraps a single inner value as a distinct capability type. Tag is a
// phantom type that keeps otherwise identical wrappers apart:
//
//	type speedTag struct{}
//	type Speed = extension.Value[speedTag, uint64]
//
// Declare wrappers with a type alias so the methods below are retained.
type Value[Tag any, V any] struct {
	Inner V
}

// Wrap converts v into a capability instance. Tag must be given explicitly;
// V is inferred: extension.Wrap[speedTag](uint64(10)).
func Wrap[Tag any, V any](v V) *Value[Tag, V] {
	return &Value[Tag, V]{Inner: v}
}

func (w *Value[Tag, V]) AsAny() any { return w }

func (w *Value[Tag, V]) ExtensionType() TypeID { return TypeFor[*Value[Tag, V]]() }

// Deref returns a pointer to the inner value.
func (w *Value[Tag, V]) Deref() *V { return &w.Inner }

// Load returns a copy of the inner value.
func (w *Value[Tag, V]) Load() V { return w.Inner }

// Set replaces the inner value.
func (w *Value[Tag, V]) Set(v V) { w.Inner = v }

// Marker is a capability without data. Its presence in a registry is the
// signal.
type Marker[Tag any] struct{}

func (m *Marker[Tag]) AsAny() any { return m }

func (m *Marker[Tag]) ExtensionType() TypeID { return TypeFor[*Marker[Tag]]() }

var (
	_ Extension = (*Value[struct{}, int])(nil)
	_ Extension = (*Marker[struct{}])(nil)
)
