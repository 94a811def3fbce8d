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
	"archive/zip"
	"context"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/walteh/vfsjob/pkg/entry"
	"github.com/walteh/vfsjob/pkg/vfs"
	"gitlab.com/tozd/go/errors"
)

func init() {
	RegisterFormat(&Format{
		Name:            "zip",
		Extensions:      []string{".zip", ".jar"},
		SupportsComment: true,
		Reentrant:       true,
		NewArchiver:     func() Archiver { return zipArchiver{} },
		OpenDecoder:     openZip,
	})
}

// zip entries written by a unix creator carry permissions in the high external attribute bits
const creatorUnix = 3

type zipArchiver struct{}

func (zipArchiver) Begin(w io.Writer, comment string) (Session, error) {
	zw := zip.NewWriter(w)
	if comment != "" {
		if err := zw.SetComment(comment); err != nil {
			return nil, errors.Errorf("setting zip comment: %w", err)
		}
	}
	return &zipSession{zw: zw}, nil
}

type zipSession struct {
	zw *zip.Writer
}

func (s *zipSession) AddEntry(attrs *entry.Attributes, content io.Reader) error {
	hdr := &zip.FileHeader{
		Name:   attrs.Address.Path(),
		Method: zip.Deflate,
	}
	if !attrs.ModTime.IsZero() {
		hdr.Modified = attrs.ModTime
	}
	hdr.SetMode(attrs.Mode())
	if attrs.Dir {
		hdr.Method = zip.Store
	}

	w, err := s.zw.CreateHeader(hdr)
	if err != nil {
		return errors.Errorf("adding zip member %s: %w", hdr.Name, err)
	}
	if attrs.Dir || content == nil {
		return nil
	}
	if _, err := io.Copy(w, content); err != nil {
		return errors.Errorf("writing zip member %s: %w", hdr.Name, err)
	}
	return nil
}

func (s *zipSession) Close() error {
	return s.zw.Close()
}

// 🗜️ zipDecoder reads a zip through random access, so entries can be opened concurrently
type zipDecoder struct {
	src     *randomAccess
	comment string
	table   EntryTable
}

func openZip(ctx context.Context, src vfs.File) (Decoder, error) {
	ra, err := openRandomAccess(ctx, src)
	if err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(ra, ra.size)
	// insecure names are filtered out below
	if err != nil && !(zr != nil && errors.Is(err, zip.ErrInsecurePath)) {
		_ = ra.Close()
		return nil, errors.Errorf("reading zip %s: %w", src.Path(), err)
	}

	table := make(EntryTable, 0, len(zr.File))
	for _, zf := range zr.File {
		dir := strings.HasSuffix(zf.Name, "/") || zf.FileInfo().IsDir()
		name := memberName(zf.Name, dir)
		if name == "" {
			continue
		}
		addr, err := entry.NewAddress(name)
		if err != nil {
			unsafeMember(ctx, src, zf.Name, err)
			continue
		}

		attrs := entry.NewAttributes(addr, dir)
		if !dir {
			attrs.Size = int64(zf.UncompressedSize64)
		}
		attrs.ModTime = zf.Modified
		if zf.CreatorVersion>>8 == creatorUnix && zf.ExternalAttrs>>16 != 0 {
			attrs.SetPermissions(zf.Mode())
		}

		pos := NoPosition
		if !dir && zf.UncompressedSize64 > 0 {
			if off, err := zf.DataOffset(); err == nil {
				pos = off
			}
		}
		table = append(table, &Entry{Attributes: attrs, Position: pos, Object: zf})
	}

	return &zipDecoder{src: ra, comment: zr.Comment, table: table}, nil
}

func (d *zipDecoder) Entries() EntryTable { return d.table }
func (d *zipDecoder) Comment() string     { return d.comment }

func (d *zipDecoder) Extract(ctx context.Context, indices []int, mode AskMode, cb ExtractCallback) error {
	if indices == nil {
		indices = allIndices(len(d.table))
	}
	for _, idx := range indices {
		if err := ctx.Err(); err != nil {
			return err
		}
		e, err := d.table.At(idx)
		if err != nil {
			return err
		}
		stream, err := cb.GetStream(idx, mode)
		if err != nil {
			return err
		}
		if e.Attributes.Dir {
			closeIfSet(stream)
			continue
		}

		rc, err := e.Object.(*zip.File).Open()
		if err != nil {
			closeIfSet(stream)
			return errors.Errorf("opening zip member %s: %w", e.Path(), err)
		}
		err = deliver(mode, stream, rc)
		_ = rc.Close()
		if err != nil {
			return errors.Errorf("extracting zip member %s: %w", e.Path(), err)
		}
	}
	return nil
}

func (d *zipDecoder) Close() error {
	return d.src.Close()
}

// randomAccess is an io.ReaderAt over an archive. Streams that cannot seek are spooled to
// a temporary file first.
type randomAccess struct {
	io.ReaderAt
	size    int64
	cleanup func() error
}

func (r *randomAccess) Close() error { return r.cleanup() }

func openRandomAccess(ctx context.Context, src vfs.File) (*randomAccess, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, errors.Errorf("opening %s: %w", src.Path(), err)
	}

	if ra, ok := rc.(interface {
		io.ReaderAt
		io.Seeker
	}); ok {
		if size, err := ra.Seek(0, io.SeekEnd); err == nil {
			return &randomAccess{ReaderAt: ra, size: size, cleanup: rc.Close}, nil
		}
	}
	defer rc.Close()

	osfs := afero.NewOsFs()
	tmp, err := afero.TempFile(osfs, "", "vfsjob-spool-*")
	if err != nil {
		return nil, errors.Errorf("spooling %s: %w", src.Path(), err)
	}
	remove := func() error {
		_ = tmp.Close()
		return osfs.Remove(tmp.Name())
	}

	size, err := io.Copy(tmp, rc)
	if err != nil {
		_ = remove()
		return nil, errors.Errorf("spooling %s: %w", src.Path(), err)
	}
	return &randomAccess{ReaderAt: tmp, size: size, cleanup: remove}, nil
}

// deliver hands content to the stream a callback returned. Test mode always reads the
// content to the end, which makes the format verify its checksums.
func deliver(mode AskMode, stream io.WriteCloser, content io.Reader) error {
	if stream == nil {
		if mode == AskTest {
			_, err := io.Copy(io.Discard, content)
			return err
		}
		return nil
	}

	_, err := io.Copy(stream, content)
	if cerr := stream.Close(); err == nil {
		err = cerr
	}
	return err
}

func closeIfSet(w io.WriteCloser) {
	if w != nil {
		_ = w.Close()
	}
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
