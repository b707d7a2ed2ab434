package worker

import (
	"context"
	"embed"
	"html/template"

	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templates embed.FS

// Sender 由 *mail.Client 实现
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// MailNotifier 在任务结束时给创建者发送邮件
type MailNotifier struct {
	client Sender
	from   string
	tmpl   *template.Template
}

func NewMailNotifier(client Sender, from string) (*MailNotifier, error) {
	tmpl, err := template.ParseFS(templates, "templates/solve_job_finished_email.html")
	if err != nil {
		return nil, err
	}

	return &MailNotifier{client: client, from: from, tmpl: tmpl}, nil
}

func mailData(job *domain.SolveJob) domain.SolveJobFinishedMailData {
	data := domain.SolveJobFinishedMailData{
		JobID:          job.ID.String(),
		Status:         job.Status,
		Backend:        job.Request.Backend,
		EmployeeCount:  job.Request.EmployeeCount,
		DayCount:       job.Request.DayCount,
		TargetStaffing: job.Request.TargetStaffing,
		Error:          job.Error,
	}

	if out := job.Outcome; out != nil {
		data.EmployeeCount = out.EmployeeCount
		data.Rosters = out.Rosters
		if out.Feasible != nil && out.Penalty != nil {
			data.Audited = true
			data.Feasible = *out.Feasible
			data.Penalty = *out.Penalty
		}
	} else if len(job.Request.Employees) > 0 {
		data.EmployeeCount = len(job.Request.Employees)
	}

	return data
}

// Message 构建通知邮件
func (n *MailNotifier) Message(job *domain.SolveJob) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return nil, err
	}
	if err := msg.To(job.NotifyEmail); err != nil {
		return nil, err
	}

	switch job.Status {
	case domain.SolveJobSucceeded:
		msg.Subject("ECNC 排班求解 - 任务完成")
	default:
		msg.Subject("ECNC 排班求解 - 任务失败")
	}

	if err := msg.SetBodyHTMLTemplate(n.tmpl, mailData(job)); err != nil {
		return nil, err
	}

	return msg, nil
}

func (n *MailNotifier) NotifySolveJobFinished(ctx context.Context, job *domain.SolveJob) error {
	msg, err := n.Message(job)
	if err != nil {
		return err
	}

	return n.client.DialAndSendWithContext(ctx, msg)
}
