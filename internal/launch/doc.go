// Package launch orchestrates a token launch: validate and normalize the
// request, publish the launch post to Moltbook, then trigger Clawnch
// against the created post.
//
// Failure policy: validation fails fast with no network call. A 429 from
// post creation stops the flow before launch (the quota resets after 30
// minutes). Once a post exists, every subsequent failure carries the post
// id so the launch step can be resumed without recreating the post.
// There is no automatic compensation for an orphaned post.
//
// The post body is a compatibility contract: Clawnch parses the !clawnch
// marker and the fenced JSON block out of the post text. Do not change
// the template, key order, or fence syntax.
package launch
