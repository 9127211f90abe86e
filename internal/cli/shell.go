// Package cli is the external shell (§1/§6): a thin interactive surface
// that parses the exact intents spec.md §6 names and calls straight
// through to Coordinator methods. Terminal UI concerns (notification
// rendering, command parsing) are explicitly out of scope for the core —
// this package is the "external collaborator" spec.md treats as a thin
// interface, built on spf13/cobra: each Shell assembles its own command
// tree in buildRootCmd, with one RunE handler per intent.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lanchat/lanchat/internal/coordinator"
)

// Shell drives one interactive session against a running Coordinator.
type Shell struct {
	c    *coordinator.Coordinator
	out  io.Writer
	root *cobra.Command
	quit bool
}

// New builds a Shell over c, writing command output to out.
func New(c *coordinator.Coordinator, out io.Writer) *Shell {
	s := &Shell{c: c, out: out}
	s.root = s.buildRootCmd()
	return s
}

// Run reads one line at a time from in, dispatching each as a command,
// until EOF, a fatal read error, or the quit intent. It also drains
// notifications in a background goroutine for the life of the shell.
func (s *Shell) Run(in io.Reader) error {
	go s.printNotifications()

	scanner := bufio.NewScanner(in)
	fmt.Fprintf(s.out, "lanchat: %s (%s)\n", s.c.Self().Username, s.c.Self().ID)
	fmt.Fprint(s.out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			s.dispatch(line)
		}
		if s.quit {
			break
		}
		fmt.Fprint(s.out, "> ")
	}
	return scanner.Err()
}

func (s *Shell) dispatch(line string) {
	args := strings.Fields(line)
	s.root.SetArgs(args)
	if err := s.root.Execute(); err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
	}
}

func (s *Shell) printNotifications() {
	for n := range s.c.Notifications() {
		fmt.Fprintf(s.out, "\n[%s] %s\n> ", n.Kind, n.Message)
	}
}

func (s *Shell) buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lanchat",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	discoverCmd := &cobra.Command{
		Use:   "discover",
		Short: "Broadcast a PING to find peers on the local network",
		RunE: func(cmd *cobra.Command, args []string) error {
			s.c.DiscoverNewPeers()
			fmt.Fprintln(s.out, "discovery broadcast sent")
			return nil
		},
	}

	createCmd := &cobra.Command{
		Use:   "create NAME PEER_INDEX...",
		Short: "Create a room with the given peers (by index, see list peers)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			peers := s.c.Peers.All()
			ids := make([]uuid.UUID, 0, len(args)-1)
			for _, raw := range args[1:] {
				idx, err := strconv.Atoi(raw)
				if err != nil || idx < 0 || idx >= len(peers) {
					return fmt.Errorf("invalid peer index %q", raw)
				}
				ids = append(ids, peers[idx].ID)
			}
			room, err := s.c.CreateRoom(name, ids)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "created room %q (%s)\n", room.Name, room.ID)
			return nil
		},
	}

	joinCmd := &cobra.Command{
		Use:   "join ROOM_NAME",
		Short: "Set the displayed room a subsequent send targets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			room, err := s.c.Rooms.GetByName(args[0])
			if err != nil {
				return err
			}
			if err := s.c.SetDisplayedRoom(room.ID); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "now displaying %q\n", room.Name)
			return nil
		},
	}

	sendCmd := &cobra.Command{
		Use:   "send TEXT...",
		Short: "Send text to the displayed room",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.c.SendRoomText(strings.Join(args, " "))
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete ROOM_NAME",
		Short: "Delete a room you created",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			room, err := s.c.Rooms.GetByName(args[0])
			if err != nil {
				return err
			}
			return s.c.DeleteCreatedRoom(room.ID)
		},
	}

	leaveCmd := &cobra.Command{
		Use:   "leave ROOM_NAME",
		Short: "Leave a room you participate in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			room, err := s.c.Rooms.GetByName(args[0])
			if err != nil {
				return err
			}
			if err := s.c.LeaveRoom(room.ID); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "left %q\n", room.Name)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List peers or rooms",
	}
	listPeersCmd := &cobra.Command{
		Use:   "peers",
		Short: "List known peers",
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, p := range s.c.Peers.All() {
				fmt.Fprintf(s.out, "%d: %s (%s) %s\n", i, p.Username, p.ID, p.Addr)
			}
			return nil
		},
	}
	listRoomsCmd := &cobra.Command{
		Use:   "rooms",
		Short: "List rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, r := range s.c.Rooms.All() {
				role := "participating"
				if s.c.Rooms.IsCreated(r.ID) {
					role = "created"
				}
				fmt.Fprintf(s.out, "%s (%s) [%s]\n", r.Name, r.ID, role)
			}
			return nil
		},
	}
	listCmd.AddCommand(listPeersCmd, listRoomsCmd)

	quitCmd := &cobra.Command{
		Use:   "quit",
		Short: "Leave the network and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			s.c.Shutdown()
			s.quit = true
			return nil
		},
	}

	root.AddCommand(discoverCmd, createCmd, joinCmd, sendCmd, deleteCmd, leaveCmd, listCmd, quitCmd)
	return root
}
