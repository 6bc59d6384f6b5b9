// Package shell - интерактивный режим клиента. Одна копия коллекции живет
// всю сессию, изменения применяются к ней сразу и фиксируются в хранилище.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"cardkeeper/cmd/client/cmd/types"
	"cardkeeper/cmd/client/cmd/ui"
	"cardkeeper/internal/app/client"
	"cardkeeper/internal/app/client/backend"
	"cardkeeper/internal/app/client/view"
	"cardkeeper/internal/domain/card"
)

const prompt = "cardkeeper> "

var errUnknownCommand = errors.New("неизвестная команда, введите help")

// Opener открывает копию коллекции для области видимости
type Opener interface {
	Collection(ctx context.Context, scope backend.Scope) (*view.Collection, error)
}

type Shell struct {
	opener Opener
	out    *ui.Printer
	scope  backend.Scope
	filter card.Filter
	col    *view.Collection
}

func New(opener Opener, out *ui.Printer) *Shell {
	return &Shell{opener: opener, out: out, scope: backend.ScopeMine}
}

// Open загружает коллекцию текущей области
func (s *Shell) Open(ctx context.Context) error {
	col, err := s.opener.Collection(ctx, s.scope)
	if err != nil {
		return err
	}
	s.Close()
	s.col = col
	return nil
}

func (s *Shell) Close() {
	if s.col != nil {
		s.col.Close()
		s.col = nil
	}
}

// Exec выполняет одну строку. quit=true означает выход из сессии.
func (s *Shell) Exec(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "exit", "quit", "q":
		return true, nil
	case "help", "?":
		s.help()
		return false, nil
	}

	if s.col == nil {
		if err := s.Open(ctx); err != nil {
			return false, err
		}
	}

	switch name {
	case "list", "ls":
		return false, s.out.Cards(s.col.Visible(s.filter), s.col.Session().ID)
	case "refresh":
		if err := s.col.Refresh(ctx); err != nil {
			return false, err
		}
		s.out.Muted("Загружено карточек: %d", len(s.col.Cards()))
		return false, nil
	case "scope":
		return false, s.setScope(ctx, args)
	case "type":
		return false, s.setType(args)
	case "search", "find":
		s.filter.Query = strings.Join(args, " ")
		return false, s.out.Cards(s.col.Visible(s.filter), s.col.Session().ID)
	case "show":
		return false, s.withID(args, s.show)
	case "like":
		return false, s.withID(args, func(id string) error { return s.like(ctx, id) })
	case "delete", "rm":
		return false, s.withID(args, func(id string) error { return s.delete(ctx, id) })
	case "import":
		return false, s.withID(args, func(id string) error { return s.importCard(ctx, id) })
	case "map":
		return false, s.showMap()
	}

	return false, fmt.Errorf("%s: %w", name, errUnknownCommand)
}

func (s *Shell) withID(args []string, fn func(id string) error) error {
	if len(args) != 1 {
		return errors.New("укажите id карточки")
	}
	return fn(args[0])
}

func (s *Shell) setScope(ctx context.Context, args []string) error {
	if len(args) == 0 {
		s.out.Info("Область: %s", s.scope)
		return nil
	}
	scope, err := backend.ParseScope(args[0])
	if err != nil {
		return err
	}

	prev := s.scope
	s.scope = scope
	if err := s.Open(ctx); err != nil {
		s.scope = prev
		return err
	}
	s.out.Muted("Область: %s, карточек: %d", scope, len(s.col.Cards()))
	return nil
}

func (s *Shell) setType(args []string) error {
	if len(args) == 0 || strings.EqualFold(args[0], "all") {
		s.filter.Type = ""
		s.out.Muted("Фильтр по типу снят")
		return nil
	}
	t, ok := card.ParseType(args[0])
	if !ok {
		return &card.ValidationError{Field: "type", Message: "unknown type " + args[0]}
	}
	s.filter.Type = t
	s.out.Muted("Тип: %s", t)
	return nil
}

func (s *Shell) show(id string) error {
	c, ok := s.col.Get(id)
	if !ok {
		return card.ErrNotFound
	}
	return s.out.Card(c)
}

func (s *Shell) like(ctx context.Context, id string) error {
	if err := s.col.ToggleLike(ctx, id); err != nil {
		return err
	}
	c, _ := s.col.Get(id)
	if c.LikedByUser(s.col.Session().ID) {
		s.out.Success("♥ %s", c.Name)
	} else {
		s.out.Success("Лайк снят: %s", c.Name)
	}
	return nil
}

func (s *Shell) delete(ctx context.Context, id string) error {
	deleted, err := s.col.RequestDelete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		s.out.Warn("Повторите delete %s для подтверждения", id)
		return nil
	}
	s.out.Success("Карточка удалена")
	return nil
}

func (s *Shell) importCard(ctx context.Context, id string) error {
	dup, err := s.col.Import(ctx, id)
	if err != nil {
		return err
	}
	s.out.Success("Импортировано: %s (%s)", dup.Name, dup.ID)
	return nil
}

func (s *Shell) showMap() error {
	points := s.col.Locations(s.filter)
	if len(points) == 0 {
		s.out.Muted("Нет карточек с координатами")
		return nil
	}
	for _, c := range points {
		s.out.Info("%-30s %9.5f %10.5f", c.Name, *c.Lat, *c.Lng)
	}
	return nil
}

func (s *Shell) help() {
	s.out.Info(`Команды:
  list | ls              карточки с учетом фильтров
  search <текст>         поиск по названию, адресу и тегам
  type <тип>|all         фильтр по типу
  scope mine|community   сменить область видимости
  show <id>              карточка целиком
  like <id>              поставить или снять лайк
  delete <id>            удалить (повторить для подтверждения)
  import <id>            скопировать карточку себе
  map                    карточки с координатами
  refresh                перечитать коллекцию
  exit                   выход`)
}

// Run - цикл чтения команд. Ошибки команд печатаются и не прерывают сессию.
func (s *Shell) Run(ctx context.Context, readLine func() (string, error)) error {
	defer s.Close()

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := readLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		quit, err := s.Exec(ctx, line)
		if err != nil {
			msg := client.Humanize(err)
			if msg == client.FallbackMessage {
				msg = err.Error()
			}
			s.out.Error(msg)
		}
		if quit {
			return nil
		}
	}
}

var ShellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Интерактивный режим",
	Long: `Открывает сессию с одной копией коллекции. Лайки и удаления видны
сразу; при ошибке записи копия перечитывается из хранилища.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		out := types.Printer(cmd)
		sh := New(app, out)

		if err := sh.Open(cmd.Context()); err != nil {
			return err
		}

		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			scanner := bufio.NewScanner(os.Stdin)
			return sh.Run(cmd.Context(), func() (string, error) {
				if scanner.Scan() {
					return scanner.Text(), nil
				}
				if err := scanner.Err(); err != nil {
					return "", err
				}
				return "", io.EOF
			})
		}

		state, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("ошибка перевода терминала в raw-режим: %w", err)
		}
		defer term.Restore(fd, state)

		t := term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{os.Stdin, os.Stdout}, prompt)
		// в raw-режиме перевод строки делает только терминал
		out.Out, out.Err = t, t

		return sh.Run(cmd.Context(), t.ReadLine)
	},
}
