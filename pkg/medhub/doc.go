// Package medhub is the content core of the medhub platform.
//
// Every content surface -- journals, blog posts, video lectures,
// events, achievements, member pages -- shares the same shape: create
// a record, list records filtered by status or category, mutate a
// status field through the admin approval workflow, bump an
// engagement counter, and optionally attach a binary asset stored in
// an object storage backend. This package implements that shape once,
// behind a Service interface configured with functional options, so
// no content type carries hand-rolled logic.
package medhub
