// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dolphin

import (
	"errors"
	"testing"
)

const (
	testManager    uint32 = 0x80F00000
	testSaveBuffer uint32 = 0x91000000
)

// bootedFake seeds a fake accessor with a fully valid pointer chain.
func bootedFake(t *testing.T) *FakeAccessor {
	t.Helper()
	fake := NewFakeAccessor()
	if err := fake.Hook(); err != nil {
		t.Fatalf("Hook: %v", err)
	}
	fake.SetBytes(addrGameID, []byte(GameID))
	fake.SetU32(addrManagerPtr, testManager)
	fake.SetU32(testManager+offSaveBufferPtr, testSaveBuffer)
	fake.SetBytes(testSaveBuffer, []byte("RKSD"))
	return fake
}

func TestResolver_Resolve(t *testing.T) {
	fake := bootedFake(t)
	layout, err := NewResolver(fake, 0).Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if layout.Manager != testManager {
		t.Errorf("Manager = 0x%08X, want 0x%08X", layout.Manager, testManager)
	}
	if layout.SaveBuffer != testSaveBuffer {
		t.Errorf("SaveBuffer = 0x%08X, want 0x%08X", layout.SaveBuffer, testSaveBuffer)
	}
	if want := testManager + offRuntimeUnlocks; layout.RuntimeUnlocks != want {
		t.Errorf("RuntimeUnlocks = 0x%08X, want 0x%08X", layout.RuntimeUnlocks, want)
	}
}

func TestResolver_SlotStride(t *testing.T) {
	fake := bootedFake(t)
	layout, err := NewResolver(fake, 2).Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := testManager + offRuntimeUnlocks + 2*runtimeSlotStride
	if layout.RuntimeUnlocks != want {
		t.Errorf("RuntimeUnlocks = 0x%08X, want 0x%08X", layout.RuntimeUnlocks, want)
	}
	if layout.Slot != 2 {
		t.Errorf("Slot = %d, want 2", layout.Slot)
	}
}

func TestResolver_StageFailures(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(*FakeAccessor)
		want    error
	}{
		{
			name:    "wrong game id",
			corrupt: func(f *FakeAccessor) { f.SetBytes(addrGameID, []byte("RMCE01")) },
			want:    ErrWrongGame,
		},
		{
			name:    "identity unreadable",
			corrupt: func(f *FakeAccessor) { f.FailRange(addrGameID, addrGameID+6) },
			want:    ErrWrongGame,
		},
		{
			name:    "manager below heap floor",
			corrupt: func(f *FakeAccessor) { f.SetU32(addrManagerPtr, 0x00001234) },
			want:    ErrNotLoaded,
		},
		{
			name: "save pointer below heap floor",
			corrupt: func(f *FakeAccessor) {
				f.SetU32(testManager+offSaveBufferPtr, 0)
			},
			want: ErrSaveLoading,
		},
		{
			name: "save pointer unreadable",
			corrupt: func(f *FakeAccessor) {
				f.FailRange(testManager+offSaveBufferPtr, testManager+offSaveBufferPtr+4)
			},
			want: ErrSaveLoading,
		},
		{
			name:    "magic not written",
			corrupt: func(f *FakeAccessor) { f.SetBytes(testSaveBuffer, []byte{0, 0, 0, 0}) },
			want:    ErrBufferNotReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := bootedFake(t)
			tt.corrupt(fake)
			_, err := NewResolver(fake, 0).Resolve()
			if !errors.Is(err, tt.want) {
				t.Errorf("Resolve error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFakeAccessor_RoundTrip(t *testing.T) {
	fake := NewFakeAccessor()
	if err := fake.Write(0x80000000, []byte{1}); !errors.Is(err, ErrNotHooked) {
		t.Errorf("Write before hook = %v, want ErrNotHooked", err)
	}

	if err := fake.Hook(); err != nil {
		t.Fatalf("Hook: %v", err)
	}
	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if err := fake.Write(0x90000010, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got := make([]byte, 4)
	if err := fake.Read(0x90000010, got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Read = % X, want % X", got, want)
		}
	}

	fake.FailRange(0x90000000, 0x90000100)
	if err := fake.Read(0x90000010, got); !errors.Is(err, ErrUnmapped) {
		t.Errorf("Read in failed range = %v, want ErrUnmapped", err)
	}
}
