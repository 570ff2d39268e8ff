package chat_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Shashank-Shivakumar/Docfly/internal/chat"
	derrors "github.com/Shashank-Shivakumar/Docfly/internal/errors"
)

type fakeBackend struct {
	mu      sync.Mutex
	forms   *chat.FormsResponse
	start   *chat.StartFormResponse
	replies []*chat.ChatResponse
	file    []byte
	err     error
	answers []string
	ids     []string
	started []string
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeBackend) ListForms(ctx context.Context) (*chat.FormsResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.forms, nil
}

func (f *fakeBackend) StartForm(ctx context.Context, name string) (*chat.StartFormResponse, error) {
	f.mu.Lock()
	f.started = append(f.started, name)
	f.mu.Unlock()
	if f.block != nil {
		close(f.entered)
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.start, nil
}

func (f *fakeBackend) SendAnswer(ctx context.Context, currentID, answer string) (*chat.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.ids = append(f.ids, currentID)
	f.answers = append(f.answers, answer)
	resp := f.replies[0]
	f.replies = f.replies[1:]
	return resp, nil
}

func (f *fakeBackend) Download(ctx context.Context, url string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.file, nil
}

func textQuestion(id, prompt string) *chat.FieldDescriptor {
	return &chat.FieldDescriptor{ID: id, DisplayText: prompt, Type: chat.TypeInputText, FormField: json.RawMessage(`"` + id + `"`)}
}

func contents(s *chat.Session) []string {
	var out []string
	for _, m := range s.Messages() {
		out = append(out, m.Content)
	}
	return out
}

var _ = Describe("Session", func() {
	var (
		ctx     context.Context
		backend *fakeBackend
		session *chat.Session
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = &fakeBackend{
			forms: &chat.FormsResponse{PDFFiles: []string{"W-9", "Lease"}, Count: 2},
			start: &chat.StartFormResponse{
				Type:     chat.TypeQuestion,
				Body:     textQuestion("name", "What is your name?"),
				Progress: &chat.Progress{Current: 1, Total: 2},
			},
		}
		session = chat.NewSession(backend)
	})

	It("starts with the welcome message and no form", func() {
		Expect(session.State()).To(Equal(chat.StateNoForm))
		Expect(contents(session)).To(Equal([]string{chat.MsgWelcome}))
		Expect(session.Messages()[0].Role).To(Equal(chat.RoleBot))
	})

	It("loads the form list", func() {
		names, err := session.LoadForms(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(Equal([]string{"W-9", "Lease"}))
		Expect(session.Forms()).To(Equal(names))
	})

	It("reports a failed form list in the transcript", func() {
		backend.err = errors.New("offline")
		_, err := session.LoadForms(ctx)
		Expect(err).To(HaveOccurred())
		Expect(contents(session)).To(ContainElement(chat.MsgFormsFailed))
	})

	Context("when a form is started", func() {
		BeforeEach(func() {
			Expect(session.StartForm(ctx, "W-9")).To(Succeed())
		})

		It("awaits an answer to the first question", func() {
			Expect(session.State()).To(Equal(chat.StateAwaitingAnswer))
			Expect(session.Form()).To(Equal("W-9"))
			Expect(session.Progress()).To(Equal(chat.Progress{Current: 1, Total: 2}))

			msgs := session.Messages()
			Expect(msgs).To(HaveLen(3))
			Expect(msgs[1].Role).To(Equal(chat.RoleUser))
			Expect(msgs[1].Content).To(Equal("W-9"))
			Expect(msgs[2].IsQuestion).To(BeTrue())
			Expect(msgs[2].Content).To(Equal("What is your name?"))
		})

		It("moves to the next question on an answer", func() {
			backend.replies = []*chat.ChatResponse{{
				Type:     chat.TypeQuestion,
				Body:     textQuestion("email", "Email?"),
				Progress: &chat.Progress{Current: 2, Total: 2},
			}}
			Expect(session.Submit(ctx, "  Ada  ")).To(Succeed())
			Expect(backend.ids).To(Equal([]string{"name"}))
			Expect(backend.answers).To(Equal([]string{"Ada"}))
			Expect(session.Question().ID).To(Equal("email"))
			Expect(session.Progress().Current).To(Equal(2))
		})

		It("defaults missing progress to zero", func() {
			backend.replies = []*chat.ChatResponse{{Type: chat.TypeQuestion, Body: textQuestion("email", "Email?")}}
			Expect(session.Submit(ctx, "Ada")).To(Succeed())
			Expect(session.Progress()).To(Equal(chat.Progress{}))
		})

		It("completes with a download link", func() {
			backend.replies = []*chat.ChatResponse{{
				Type:         chat.TypeCompleteMessage,
				Message:      "All done",
				PresignedURL: "http://files/w9.pdf",
			}}
			Expect(session.Submit(ctx, "Ada")).To(Succeed())
			Expect(session.State()).To(Equal(chat.StateCompleted))
			Expect(session.Question()).To(BeNil())
			Expect(session.Completion()).To(Equal("All done"))
			Expect(contents(session)[4:]).To(Equal([]string{"All done", chat.MsgSaved, chat.MsgReady}))
		})

		It("uses the default completion text without a link", func() {
			backend.replies = []*chat.ChatResponse{{Type: chat.TypeCompleteMessage}}
			Expect(session.Submit(ctx, "Ada")).To(Succeed())
			Expect(contents(session)[4:]).To(Equal([]string{chat.MsgCompleted, chat.MsgSaved}))
			Expect(session.DownloadURL()).To(BeEmpty())
		})

		It("keeps the question when the answer fails", func() {
			backend.err = errors.New("timeout")
			Expect(session.Submit(ctx, "Ada")).NotTo(Succeed())
			Expect(session.State()).To(Equal(chat.StateAwaitingAnswer))
			Expect(session.Question().ID).To(Equal("name"))
			Expect(contents(session)).To(ContainElement(chat.MsgAnswerFailed))
		})

		It("rejects an empty answer without calling the backend", func() {
			err := session.Submit(ctx, "   ")
			Expect(errors.Is(err, derrors.ErrValidation)).To(BeTrue())
			Expect(backend.answers).To(BeEmpty())
		})

		It("resets to the form picker", func() {
			session.Reset()
			Expect(session.State()).To(Equal(chat.StateNoForm))
			Expect(session.Form()).To(BeEmpty())
			Expect(contents(session)).To(Equal([]string{chat.MsgWelcomeBack}))
		})
	})

	Context("with a check_list question", func() {
		BeforeEach(func() {
			backend.start = &chat.StartFormResponse{
				Success: true,
				Body: &chat.FieldDescriptor{
					ID:          "color",
					DisplayText: "Favourite color?",
					Type:        chat.TypeCheckList,
					FormField:   json.RawMessage(`{"Red":{"value":"Off"},"Blue":{"value":"Off"}}`),
				},
			}
			Expect(session.StartForm(ctx, "Profile")).To(Succeed())
		})

		It("defaults progress to one of one", func() {
			Expect(session.Progress()).To(Equal(chat.Progress{Current: 1, Total: 1}))
		})

		It("lists the options on the question message", func() {
			last := session.Messages()[len(session.Messages())-1]
			Expect(last.Options).To(Equal([]string{"Red", "Blue"}))
		})

		It("answers with the chosen option", func() {
			backend.replies = []*chat.ChatResponse{{Type: chat.TypeCompleteMessage}}
			Expect(session.Choose(ctx, 2)).To(Succeed())
			Expect(backend.answers).To(Equal([]string{"Blue"}))
		})

		It("rejects an option out of range", func() {
			Expect(session.Choose(ctx, 3)).NotTo(Succeed())
			Expect(session.Choose(ctx, 0)).NotTo(Succeed())
			Expect(backend.answers).To(BeEmpty())
		})
	})

	It("starts the sample survey", func() {
		Expect(session.StartSurvey(ctx)).To(Succeed())
		Expect(backend.started).To(Equal([]string{chat.SurveyForm}))
		Expect(contents(session)[1]).To(Equal("Starting survey: Profile"))
	})

	It("reports an unusable start response", func() {
		backend.start = &chat.StartFormResponse{Type: "error", Message: "nope"}
		Expect(session.StartForm(ctx, "W-9")).To(MatchError(chat.ErrUnexpected))
		Expect(session.State()).To(Equal(chat.StateNoForm))
		Expect(contents(session)).To(ContainElement(chat.MsgStartFailed))
	})

	It("refuses to answer before a form is started", func() {
		Expect(session.Submit(ctx, "hello")).To(MatchError(chat.ErrNoQuestion))
	})

	It("rejects overlapping requests", func() {
		backend.block = make(chan struct{})
		backend.entered = make(chan struct{})
		done := make(chan error, 1)
		go func() { done <- session.StartForm(ctx, "W-9") }()

		Eventually(backend.entered).Should(BeClosed())
		Expect(session.Busy()).To(BeTrue())
		Expect(session.StartForm(ctx, "Lease")).To(MatchError(chat.ErrBusy))

		close(backend.block)
		Eventually(done).Should(Receive(BeNil()))
		Expect(session.Busy()).To(BeFalse())
	})

	Describe("downloading the filled form", func() {
		var dir string

		BeforeEach(func() {
			var err error
			dir, err = os.MkdirTemp("", "chat-download-*")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(os.RemoveAll, dir)
		})

		It("fails before a link is available", func() {
			_, err := session.DownloadResult(ctx, dir)
			Expect(err).To(MatchError(chat.ErrNoDownload))
		})

		It("saves the file named after the form", func() {
			backend.file = []byte("%PDF-filled")
			backend.replies = []*chat.ChatResponse{{Type: chat.TypeCompleteMessage, PresignedURL: "http://files/x.pdf"}}
			Expect(session.StartForm(ctx, "W-9")).To(Succeed())
			Expect(session.Submit(ctx, "Ada")).To(Succeed())

			path, err := session.DownloadResult(ctx, dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal(filepath.Join(dir, "W-9-filled.pdf")))
			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("%PDF-filled"))
		})
	})
})
