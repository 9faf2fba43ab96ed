// Package sources fetches transcript and chapter data from YouTube.
//
// The implementation is split by responsibility:
//
//	youtube_innertube.go  — Innertube API types, constants, and low-level HTTP primitives
//	youtube_transcript.go — transcript strategies (caption track, transcript API,
//	                        browser-fingerprint fallback) and the fallback driver
//	youtube_chapters.go   — video metadata and description-derived chapters
package sources
