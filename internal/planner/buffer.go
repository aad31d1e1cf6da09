package planner

// Member is one converted output waiting in a Buffer.
type Member struct {
	// Path is the temp file holding the converted audio.
	Path string
	// Duration is the planned duration in seconds.
	Duration float64
	// Destination is where the member is delivered when it is flushed alone.
	Destination string
	// MergedDestination is where the buffer is delivered when this member
	// starts it and later members are concatenated onto it.
	MergedDestination string
}

// Buffer accumulates converted outputs until they are flushed. The zero value
// is an empty buffer.
type Buffer struct {
	members     []Member
	duration    float64
	destination string
}

// Append adds m to the buffer. The first member fixes the merged destination.
func (b *Buffer) Append(m Member) {
	if len(b.members) == 0 {
		b.destination = m.MergedDestination
	}
	b.members = append(b.members, m)
	b.duration += m.Duration
}

// Len returns the number of pending members.
func (b *Buffer) Len() int { return len(b.members) }

// Empty reports whether nothing is pending.
func (b *Buffer) Empty() bool { return len(b.members) == 0 }

// Duration is the cumulative planned duration of all members.
func (b *Buffer) Duration() float64 { return b.duration }

// Destination is the planned merged output path.
func (b *Buffer) Destination() string { return b.destination }

// NeedsMerge reports whether flushing requires a concatenation.
func (b *Buffer) NeedsMerge() bool { return len(b.members) > 1 }

// Members returns a copy of the pending members in order.
func (b *Buffer) Members() []Member {
	return append([]Member(nil), b.members...)
}

// Paths returns the temp paths of the pending members in order.
func (b *Buffer) Paths() []string {
	paths := make([]string, 0, len(b.members))
	for _, m := range b.members {
		paths = append(paths, m.Path)
	}
	return paths
}

// Drain empties the buffer and returns what was pending.
func (b *Buffer) Drain() []Member {
	members := b.members
	b.members = nil
	b.duration = 0
	b.destination = ""
	return members
}
