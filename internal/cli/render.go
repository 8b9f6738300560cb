package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/atinyakov/mycraft/internal/client/toast"
	"github.com/atinyakov/mycraft/internal/models"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	priceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	senderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	toastStyles = map[toast.Category]lipgloss.Style{
		toast.Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		toast.Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		toast.Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		toast.Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

func renderToast(t toast.Toast) string {
	style, ok := toastStyles[t.Category]
	if !ok {
		style = toastStyles[toast.Info]
	}
	return style.Render(fmt.Sprintf("[%s] %s", t.Category, t.Message))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printServices(w io.Writer, page []models.Service, total int) {
	if len(page) == 0 {
		fmt.Fprintln(w, headerStyle.Render("No services found"))
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Found %d service(s)", total)))

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, titleStyle.Render("ID")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Trade")+"\t"+
		titleStyle.Render("City")+"\t"+titleStyle.Render("Price")+"\t"+titleStyle.Render("Status")+"\t")
	for _, s := range page {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(strconv.FormatInt(s.ID, 10)),
			truncate(s.Title, 40),
			s.Trade,
			dash(s.City),
			priceStyle.Render(dash(s.Price)),
			dimStyle.Render(dash(string(s.Status))),
		)
	}
	_ = tw.Flush()
}

func printService(w io.Writer, s *models.Service) {
	fmt.Fprintln(w, titleStyle.Render(s.Title)+" "+idStyle.Render("#"+strconv.FormatInt(s.ID, 10)))
	fmt.Fprintf(w, "Trade:      %s\n", s.Trade)
	fmt.Fprintf(w, "Status:     %s\n", dash(string(s.Status)))
	fmt.Fprintf(w, "Location:   %s %s\n", s.ZipCode, s.City)
	fmt.Fprintf(w, "Date:       %s\n", dash(s.ExecutionDate))
	fmt.Fprintf(w, "Price:      %s\n", priceStyle.Render(dash(s.Price)))
	fmt.Fprintf(w, "Contractor: %s\n", dash(s.ContractorUsername))
	if s.Description != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, s.Description)
	}
}

func printBookings(w io.Writer, title string, bookings []models.Booking) {
	if len(bookings) == 0 {
		fmt.Fprintln(w, headerStyle.Render("No "+strings.ToLower(title)))
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s (%d)", title, len(bookings))))

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, titleStyle.Render("ID")+"\t"+titleStyle.Render("Service")+"\t"+titleStyle.Render("Date")+"\t"+
		titleStyle.Render("Price")+"\t"+titleStyle.Render("Status")+"\t")
	for _, b := range bookings {
		service := "-"
		if b.Service != nil {
			service = truncate(b.Service.Title, 40)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(strconv.FormatInt(b.ID, 10)),
			service,
			dash(b.ScheduledDate),
			priceStyle.Render(dash(b.Price)),
			b.Status,
		)
	}
	_ = tw.Flush()
}

func printUser(w io.Writer, u *models.User) {
	role := "customer"
	if u.IsCraftsman {
		role = "craftsman"
	}
	fmt.Fprintln(w, titleStyle.Render(u.Username)+" "+idStyle.Render("#"+strconv.FormatInt(u.ID, 10)))
	fmt.Fprintf(w, "Role:    %s\n", role)
	fmt.Fprintf(w, "Email:   %s\n", dash(u.Email))
	fmt.Fprintf(w, "City:    %s\n", dash(u.City))
	if u.IsCraftsman {
		fmt.Fprintf(w, "Company: %s\n", dash(u.CompanyName))
	}
	if u.AverageRating != nil {
		fmt.Fprintf(w, "Rating:  %.1f (%d reviews)\n", *u.AverageRating, u.ReviewCount)
	}
}

func participantNames(ps []models.Participant) string {
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.Username)
	}
	return strings.Join(names, ", ")
}

func printConversations(w io.Writer, convs []models.ConversationSummary) {
	if len(convs) == 0 {
		fmt.Fprintln(w, headerStyle.Render("No conversations yet"))
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d conversation(s)", len(convs))))

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, titleStyle.Render("ID")+"\t"+titleStyle.Render("Service")+"\t"+titleStyle.Render("With")+"\t"+
		titleStyle.Render("Last message")+"\t")
	for _, c := range convs {
		service := "-"
		if c.JobDetails != nil {
			service = truncate(c.JobDetails.Title, 30)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			idStyle.Render(strconv.FormatInt(c.ID, 10)),
			service,
			participantNames(c.Participants),
			dimStyle.Render(truncate(dash(c.LastMessagePreview), 40)),
		)
	}
	_ = tw.Flush()
}

func printConversationHeader(w io.Writer, c *models.ConversationDetail) {
	title := "Conversation"
	if c.JobDetails != nil {
		title = c.JobDetails.Title
	}
	fmt.Fprintln(w, headerStyle.Render(title)+" "+idStyle.Render("#"+strconv.FormatInt(c.ID, 10)))
	if len(c.Participants) > 0 {
		fmt.Fprintln(w, dimStyle.Render("with "+participantNames(c.Participants)))
	}
}

func printMessages(w io.Writer, msgs []models.Message) {
	for _, m := range msgs {
		printMessage(w, m)
	}
}

func printMessage(w io.Writer, m models.Message) {
	sender := m.SenderUsername
	if sender == "" {
		sender = "#" + strconv.FormatInt(m.Sender, 10)
	}
	prefix := senderStyle.Render(sender)
	if m.Timestamp != "" {
		prefix += " " + dimStyle.Render(m.Timestamp)
	}
	if m.Offer != nil {
		fmt.Fprintf(w, "%s: offer %s for %s [%s]",
			prefix,
			idStyle.Render("#"+strconv.FormatInt(m.Offer.ID, 10)),
			priceStyle.Render(m.Offer.Price),
			m.Offer.Status,
		)
		if m.Offer.Description != "" {
			fmt.Fprintf(w, " %s", m.Offer.Description)
		}
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, "%s: %s\n", prefix, m.Content)
}
