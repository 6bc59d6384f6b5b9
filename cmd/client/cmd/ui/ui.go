// Package ui - вывод команд клиента: статусные строки, таблицы карточек, запросы ввода
package ui

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"golang.org/x/term"

	"cardkeeper/internal/domain/card"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	mutedColor   = color.New(color.FgHiBlack)

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Printer пишет в Out; при JSON карточки выводятся как JSON без оформления
type Printer struct {
	Out  io.Writer
	Err  io.Writer
	JSON bool
}

func NewPrinter(jsonOutput bool) *Printer {
	return &Printer{Out: os.Stdout, Err: os.Stderr, JSON: jsonOutput}
}

func (p *Printer) Success(format string, args ...any) {
	successColor.Fprintf(p.Out, "✓ "+format+"\n", args...)
}

func (p *Printer) Warn(format string, args ...any) {
	warnColor.Fprintf(p.Out, "! "+format+"\n", args...)
}

func (p *Printer) Error(msg string) {
	errorColor.Fprintln(p.Err, "✗ "+msg)
}

func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.Out, format+"\n", args...)
}

func (p *Printer) Muted(format string, args ...any) {
	mutedColor.Fprintf(p.Out, format+"\n", args...)
}

func (p *Printer) PrintJSON(v any) error {
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Cards печатает таблицу карточек; ♥ отмечает лайк текущего пользователя
func (p *Printer) Cards(cards []card.Card, sessionID string) error {
	if p.JSON {
		return p.PrintJSON(cards)
	}
	if len(cards) == 0 {
		p.Muted("Карточки не найдены")
		return nil
	}

	fmt.Fprintln(p.Out, CardsTable(cards, sessionID))
	p.Muted("Всего: %d", len(cards))
	return nil
}

func CardsTable(cards []card.Card, sessionID string) string {
	rows := make([][]string, 0, len(cards))
	for _, c := range cards {
		like := strconv.Itoa(len(c.LikedBy))
		if c.LikedByUser(sessionID) {
			like = "♥ " + like
		}
		rows = append(rows, []string{
			c.ID,
			truncate(c.Name, 28),
			string(c.Type),
			truncate(c.Address, 32),
			stars(c.Rating),
			like,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("ID", "Название", "Тип", "Адрес", "Рейтинг", "Лайки").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return t.String()
}

// Card печатает одну карточку целиком
func (p *Printer) Card(c card.Card) error {
	if p.JSON {
		return p.PrintJSON(c)
	}

	w := p.Out
	color.New(color.Bold).Fprintln(w, c.Name)
	mutedColor.Fprintf(w, "%s · %s\n", c.ID, c.Type)

	field := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "  %-12s %s\n", label+":", value)
		}
	}
	field("Адрес", c.Address)
	field("Телефон", c.Phone)
	field("Сайт", c.Website)
	field("Email", c.Email)
	field("Теги", strings.Join(c.Tags, ", "))
	field("Услуги", strings.Join(c.Services, ", "))
	if c.BipConvention != nil {
		field("BIP", yesNo(*c.BipConvention))
	}
	if c.AverageCost != nil {
		field("Средний чек", strconv.FormatFloat(*c.AverageCost, 'f', 2, 64)+" €")
	}
	field("Рейтинг", stars(c.Rating))
	if card.HasValidLocation(c) {
		field("Координаты", fmt.Sprintf("%.5f, %.5f", *c.Lat, *c.Lng))
	}
	field("Заметки", c.Notes)
	field("Лайки", strconv.Itoa(len(c.LikedBy)))
	if c.CreatedAt > 0 {
		field("Создана", time.UnixMilli(c.CreatedAt).Format("2006-01-02 15:04"))
	}

	return nil
}

func stars(rating int) string {
	if rating <= 0 {
		return "-"
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

func yesNo(v bool) string {
	if v {
		return "да"
	}
	return "нет"
}

func truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length-1]) + "…"
}

// ==================== ввод ====================

var stdin = bufio.NewReader(os.Stdin)

// Prompt читает строку; пустой ввод возвращает def
func Prompt(label, def string) (string, error) {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}

	line, err := stdin.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("ошибка чтения ввода: %w", err)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

// Password читает пароль без эха, если stdin - терминал
func Password(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return Prompt(label, "")
	}

	fmt.Printf("%s: ", label)
	password, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("ошибка чтения пароля: %w", err)
	}
	return string(password), nil
}

// Confirm - вопрос да/нет, по умолчанию нет
func Confirm(label string) (bool, error) {
	answer, err := Prompt(label+" (y/N)", "")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes", "д", "да":
		return true, nil
	}
	return false, nil
}
