package commands

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"
)

var (
	sendAddr string
	sendWait time.Duration
)

func init() {
	sendCmd.Flags().StringVar(&sendAddr, "addr", "127.0.0.1:5005", "body unit command address")
	sendCmd.Flags().DurationVar(&sendWait, "wait", time.Second, "how long to wait for a reply")
	rootCmd.AddCommand(sendCmd)
}

var sendCmd = &cobra.Command{
	Use:   "send <command>",
	Short: "Send one command datagram to a body unit and print any reply",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := net.ResolveUDPAddr("udp", sendAddr)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", sendAddr, err)
		}

		// The body replies to the fixed command port of the sender's IP,
		// so bind the local socket to that port to catch the answer.
		local := &net.UDPAddr{Port: addr.Port}
		conn, err := net.ListenUDP("udp", local)
		if err != nil {
			// Port taken (a brain is running here): fall back to an
			// ephemeral port and accept that replies may be missed.
			conn, err = net.ListenUDP("udp", nil)
			if err != nil {
				return err
			}
		}
		defer conn.Close()

		if _, err := conn.WriteToUDP([]byte(args[0]), addr); err != nil {
			return fmt.Errorf("send: %w", err)
		}

		conn.SetReadDeadline(time.Now().Add(sendWait))
		buf := make([]byte, 512)
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil // fire-and-forget commands never reply
			}
			return err
		}
		fmt.Println(string(buf[:n]))
		return nil
	},
}
