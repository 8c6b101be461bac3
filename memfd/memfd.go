// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: memfd/memfd.go
// Summary: Anonymous in-memory file creation, sealing and mapping.
// Usage: Workers allocate their output buffers here; the host seals and
// maps every fd it receives across the bus before handing it to callers.
// Notes: Ported from the seal/retry idiom in the upstream dbus.rs::seal_fd,
// using golang.org/x/sys/unix for memfd_create/fcntl/mmap instead of the
// memfd and memmap crates.

//go:build linux

package memfd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// sealRetryBudget bounds how long Seal retries on EBUSY before giving up,
// per the spec's 10-second sealing back-off.
const sealRetryBudget = 10 * time.Second

// Create allocates a new, writable, anonymous memfd with the given
// debug name. The returned file's seals are not yet applied.
func Create(name string) (*os.File, error) {
	fd, err := unix.MemfdCreate(name, unix.MFD_ALLOW_SEALING|unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("memfd: create %q: %w", name, err)
	}
	return os.NewFile(uintptr(fd), name), nil
}

// Seal applies the four write-disabling seals (SHRINK, GROW, WRITE, SEAL)
// to f. Sealing may transiently fail with EBUSY while a writable mapping
// of the fd is still live somewhere in this process or another holder's;
// Seal retries with a short back-off for up to ten seconds before
// reporting the failure as fatal.
func Seal(f *os.File) error {
	const seals = unix.F_SEAL_SHRINK | unix.F_SEAL_GROW | unix.F_SEAL_WRITE | unix.F_SEAL_SEAL

	deadline := time.Now().Add(sealRetryBudget)
	for {
		_, err := unix.FcntlInt(f.Fd(), unix.F_ADD_SEALS, seals)
		if err == nil {
			return nil
		}
		if !errors.Is(err, unix.EBUSY) || time.Now().After(deadline) {
			return fmt.Errorf("memfd: seal %s: %w", f.Name(), err)
		}
		time.Sleep(time.Millisecond)
	}
}

// MapReadOnly returns a private, read-only mapping of f's full contents.
// Because the mapping is MAP_PRIVATE, the holder cannot observe writes made
// by any other holder of the fd (moot once the fd is sealed, since there
// are none).
func MapReadOnly(f *os.File) ([]byte, error) {
	size, err := fileSize(f)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return []byte{}, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("memfd: map read-only %s: %w", f.Name(), err)
	}
	return data, nil
}

// MapWritable returns a shared, writable mapping of f's full contents. The
// caller must Unmap it before Seal is called on the same fd.
func MapWritable(f *os.File) ([]byte, error) {
	size, err := fileSize(f)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return []byte{}, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("memfd: map writable %s: %w", f.Name(), err)
	}
	return data, nil
}

// Unmap releases a mapping returned by MapReadOnly or MapWritable.
func Unmap(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Munmap(data)
}

// Truncate resizes f to exactly n bytes. Used by stride normalization to
// shrink a texture once its rows have been repacked tightly.
func Truncate(f *os.File, n int64) error {
	if err := unix.Ftruncate(int(f.Fd()), n); err != nil {
		return fmt.Errorf("memfd: truncate %s: %w", f.Name(), err)
	}
	return nil
}

func fileSize(f *os.File) (int, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("memfd: stat %s: %w", f.Name(), err)
	}
	return int(info.Size()), nil
}
