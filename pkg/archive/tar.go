// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"io/fs"

	"github.com/pierrec/lz4/v4"
	"github.com/walteh/vfsjob/pkg/entry"
	"github.com/walteh/vfsjob/pkg/vfs"
	"gitlab.com/tozd/go/errors"
)

// compression wraps the byte stream below a tar archive.
type compression struct {
	reader func(io.Reader) (io.Reader, error)
	writer func(io.Writer) io.WriteCloser
}

var (
	plain = compression{
		reader: func(r io.Reader) (io.Reader, error) { return r, nil },
	}
	gzipped = compression{
		reader: func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) },
		writer: func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) },
	}
	lz4ed = compression{
		reader: func(r io.Reader) (io.Reader, error) { return lz4.NewReader(r), nil },
		writer: func(w io.Writer) io.WriteCloser { return lz4.NewWriter(w) },
	}
)

func init() {
	for _, f := range []struct {
		name string
		exts []string
		c    compression
	}{
		{"tar", []string{".tar"}, plain},
		{"tar.gz", []string{".tar.gz", ".tgz"}, gzipped},
		{"tar.lz4", []string{".tar.lz4"}, lz4ed},
	} {
		c := f.c
		RegisterFormat(&Format{
			Name:        f.name,
			Extensions:  f.exts,
			NewArchiver: func() Archiver { return tarArchiver{c: c} },
			OpenDecoder: func(ctx context.Context, src vfs.File) (Decoder, error) {
				return openTar(ctx, src, c)
			},
		})
	}
}

type tarArchiver struct {
	c compression
}

// Begin ignores comment, tar has nowhere to store one.
func (a tarArchiver) Begin(w io.Writer, comment string) (Session, error) {
	s := &tarSession{}
	out := w
	if a.c.writer != nil {
		s.compressor = a.c.writer(w)
		out = s.compressor
	}
	s.tw = tar.NewWriter(out)
	return s, nil
}

type tarSession struct {
	tw         *tar.Writer
	compressor io.WriteCloser
}

func (s *tarSession) AddEntry(attrs *entry.Attributes, content io.Reader) error {
	hdr := &tar.Header{
		Name:    attrs.Address.Path(),
		Mode:    int64(attrs.EffectivePermissions()),
		ModTime: attrs.ModTime,
	}

	if attrs.Dir {
		hdr.Typeflag = tar.TypeDir
		if err := s.tw.WriteHeader(hdr); err != nil {
			return errors.Errorf("adding tar member %s: %w", hdr.Name, err)
		}
		return nil
	}

	size := attrs.Size
	if content == nil {
		size, content = 0, bytes.NewReader(nil)
	}
	if size == entry.SizeUnknown {
		// tar needs the size up front
		buf, err := io.ReadAll(content)
		if err != nil {
			return errors.Errorf("buffering tar member %s: %w", hdr.Name, err)
		}
		size, content = int64(len(buf)), bytes.NewReader(buf)
	}

	hdr.Typeflag = tar.TypeReg
	hdr.Size = size
	if err := s.tw.WriteHeader(hdr); err != nil {
		return errors.Errorf("adding tar member %s: %w", hdr.Name, err)
	}
	n, err := io.CopyN(s.tw, content, size)
	if err != nil {
		return errors.Errorf("writing tar member %s: wrote %d of %d bytes: %w", hdr.Name, n, size, err)
	}
	return nil
}

func (s *tarSession) Close() error {
	err := s.tw.Close()
	if s.compressor != nil {
		if cerr := s.compressor.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// 📼 tarDecoder re-reads the archive from the start on every extraction. Entries come out
// in archive order and never concurrently.
type tarDecoder struct {
	src   vfs.File
	c     compression
	table EntryTable
}

func openTar(ctx context.Context, src vfs.File, c compression) (Decoder, error) {
	d := &tarDecoder{src: src, c: c}

	err := d.scan(ctx, func(seq int, hdr *tar.Header, _ io.Reader) (bool, error) {
		var dir bool
		switch hdr.Typeflag {
		case tar.TypeDir:
			dir = true
		case tar.TypeReg:
		default:
			return false, nil
		}

		name := memberName(hdr.Name, dir)
		if name == "" {
			return false, nil
		}
		addr, err := entry.NewAddress(name)
		if err != nil {
			unsafeMember(ctx, src, hdr.Name, err)
			return false, nil
		}

		attrs := entry.NewAttributes(addr, dir)
		if !dir {
			attrs.Size = hdr.Size
		}
		attrs.ModTime = hdr.ModTime
		attrs.SetPermissions(fs.FileMode(hdr.Mode).Perm())

		pos := NoPosition
		if !dir && hdr.Size > 0 {
			pos = int64(seq)
		}
		d.table = append(d.table, &Entry{Attributes: attrs, Position: pos, Object: seq})
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// scan walks the tar headers from the start. visit returns true to stop early.
func (d *tarDecoder) scan(ctx context.Context, visit func(seq int, hdr *tar.Header, content io.Reader) (bool, error)) error {
	rc, err := d.src.Open(ctx)
	if err != nil {
		return errors.Errorf("opening %s: %w", d.src.Path(), err)
	}
	defer rc.Close()

	r, err := d.c.reader(rc)
	if err != nil {
		return errors.Errorf("reading %s: %w", d.src.Path(), err)
	}

	tr := tar.NewReader(r)
	for seq := 0; ; seq++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil && !(hdr != nil && errors.Is(err, tar.ErrInsecurePath)) {
			return errors.Errorf("reading %s: %w", d.src.Path(), err)
		}
		stop, err := visit(seq, hdr, tr)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

func (d *tarDecoder) Entries() EntryTable { return d.table }
func (d *tarDecoder) Close() error        { return nil }

func (d *tarDecoder) Extract(ctx context.Context, indices []int, mode AskMode, cb ExtractCallback) error {
	if indices == nil {
		indices = allIndices(len(d.table))
	}

	wanted := make(map[int]int, len(indices))
	for _, idx := range indices {
		e, err := d.table.At(idx)
		if err != nil {
			return err
		}
		wanted[e.Object.(int)] = idx
	}
	if len(wanted) == 0 {
		return nil
	}

	return d.scan(ctx, func(seq int, _ *tar.Header, content io.Reader) (bool, error) {
		idx, ok := wanted[seq]
		if !ok {
			return false, nil
		}
		delete(wanted, seq)

		e := d.table[idx]
		stream, err := cb.GetStream(idx, mode)
		if err != nil {
			return false, err
		}
		if e.Attributes.Dir {
			closeIfSet(stream)
		} else if err := deliver(mode, stream, content); err != nil {
			return false, errors.Errorf("extracting tar member %s: %w", e.Path(), err)
		}
		return len(wanted) == 0, nil
	})
}
