// Package revlines reads the lines of a seekable stream in reverse order,
// last line first, without loading the whole stream into memory.
//
// A Reader walks the stream backwards in fixed-size blocks. Each block is
// prepended to a pending buffer that is scanned from its end for line
// terminators (LF or CR LF). Memory use is bounded by the chunk size plus the
// length of the longest line.
//
//	f, err := os.Open("app.log")
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//
//	r, err := revlines.New(f, revlines.WithChunkSize(8192))
//	if err != nil {
//		return err
//	}
//	for line, err := range r.All(ctx) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(string(line))
//	}
//
// The Reader never closes the stream and must not share it with other readers
// while iterating.
package revlines
