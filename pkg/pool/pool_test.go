// Object pool tests
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package pool

import "testing"

func TestByteBuffer(t *testing.T) {
	b := GetByteBuffer()
	defer PutByteBuffer(b)

	b.WriteString("G1 X")
	b.AppendFloat(1.5, 3)
	b.WriteByte(' ')
	b.Write([]byte("S"))
	b.AppendFloat(1000, -1)

	if got := b.String(); got != "G1 X1.500 S1000" {
		t.Errorf("unexpected buffer %q", got)
	}
	if b.Len() != len("G1 X1.500 S1000") {
		t.Errorf("unexpected length %d", b.Len())
	}
	b.Reset()
	if b.Len() != 0 {
		t.Errorf("expected empty buffer after Reset")
	}
}

func TestByteBufferReuseIsEmpty(t *testing.T) {
	b := GetByteBuffer()
	b.WriteString("leftover")
	PutByteBuffer(b)

	b2 := GetByteBuffer()
	defer PutByteBuffer(b2)
	if b2.Len() != 0 {
		t.Errorf("pooled buffer should come back empty, got %q", b2.String())
	}
}

func TestOversizedBufferNotPooled(t *testing.T) {
	b := &ByteBuffer{buf: make([]byte, 0, maxPooledBuffer+1)}
	PutByteBuffer(b) // must not panic
	PutByteBuffer(nil)
}

func TestStringSlice(t *testing.T) {
	s := GetStringSlice()
	*s = append(*s, "G1", "X1")
	PutStringSlice(s)

	s2 := GetStringSlice()
	defer PutStringSlice(s2)
	if len(*s2) != 0 {
		t.Errorf("pooled slice should be empty, got %v", *s2)
	}
	PutStringSlice(nil)
}
