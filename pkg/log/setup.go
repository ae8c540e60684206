// Logger setup for the wirecam binaries
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import "io"

// Options selects the root logger configuration. Empty fields keep the
// current setting.
type Options struct {
	Level  string
	Format string
	File   string // mirrored into a rotating file when set
}

// Setup configures the default logger. Environment variables are applied
// last and win over opts. The returned closer releases the log file and
// is never nil.
func Setup(opts Options) (io.Closer, error) {
	l := Default()
	if opts.Level != "" {
		l.SetLevel(ParseLevel(opts.Level))
	}
	if opts.Format != "" {
		l.SetFormat(ParseFormat(opts.Format))
	}
	ConfigureFromEnv(l)

	if opts.File == "" {
		return nopCloser{}, nil
	}
	fw, err := l.AttachFile(RotationConfig{Filename: opts.File})
	if err != nil {
		return nopCloser{}, err
	}
	return fw, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
