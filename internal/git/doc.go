// Package git wraps go-git operations on the site repository: staging and
// committing publish revisions, and pushing them to configured remotes.
//
// The repository working copy holds both the content tree and the generated
// output tree; a revision snapshots both at once. All operations run against
// a single repository owned by one publisher instance at a time.
package git
