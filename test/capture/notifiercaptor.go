// Package capture provides captors of dailyscot's outbound messages for tests
package capture

import (
	"fmt"
	"sync"
)

// Post kinds
const (
	ThreadedReply  = "threadedReply"
	DirectMessage  = "directMessage"
	ChannelMessage = "channelMessage"
)

// Post holds the details of a captured outbound message. ThreadID is only set for threaded replies
type Post struct {
	Kind      string
	ChannelID string
	ThreadID  string
	Text      string
}

// NotifierCaptor implements dailyscot.Notifier and captures every post sent to it
type NotifierCaptor struct {
	mu    sync.Mutex
	posts []Post

	// Err, when set, is returned by every post. Failed posts aren't captured
	Err error
}

// NewNotifier returns a new NotifierCaptor
func NewNotifier() (n *NotifierCaptor) {
	n = new(NotifierCaptor)
	n.posts = make([]Post, 0)

	return n
}

func (n *NotifierCaptor) capture(p Post) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.Err != nil {
		return n.Err
	}

	n.posts = append(n.posts, p)

	return nil
}

// PostThreadedReply captures a threaded reply
func (n *NotifierCaptor) PostThreadedReply(channelID string, threadID string, text string) (err error) {
	return n.capture(Post{Kind: ThreadedReply, ChannelID: channelID, ThreadID: threadID, Text: text})
}

// PostDirectMessage captures a direct message. The channel is the user id
func (n *NotifierCaptor) PostDirectMessage(userID string, text string) (err error) {
	return n.capture(Post{Kind: DirectMessage, ChannelID: userID, Text: text})
}

// PostChannelMessage captures a top-level channel message
func (n *NotifierCaptor) PostChannelMessage(channelID string, text string) (err error) {
	return n.capture(Post{Kind: ChannelMessage, ChannelID: channelID, Text: text})
}

// Posts returns a copy of the captured posts, in order
func (n *NotifierCaptor) Posts() (posts []Post) {
	n.mu.Lock()
	defer n.mu.Unlock()

	posts = make([]Post, len(n.posts))
	copy(posts, n.posts)

	return posts
}

// PostsOfKind returns the captured posts of the given kind, in order
func (n *NotifierCaptor) PostsOfKind(kind string) (posts []Post) {
	posts = make([]Post, 0)
	for _, p := range n.Posts() {
		if p.Kind == kind {
			posts = append(posts, p)
		}
	}

	return posts
}

// String returns a friendly representation of a post
func (p Post) String() string {
	return fmt.Sprintf("%s on [%s] (thread [%s]): %q", p.Kind, p.ChannelID, p.ThreadID, p.Text)
}
