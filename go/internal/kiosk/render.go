package kiosk

import (
	"fmt"
	"io"
	"strings"

	"github.com/mcdev12/buffet/go/internal/menu"
	"github.com/mcdev12/buffet/go/internal/session"
)

const (
	lowTimeWarning = "⚠️ เหลือเวลาไม่ถึง 5 นาที!"
	timeLabel      = "เวลาที่เหลือ"
)

// View is everything one frame shows
type View struct {
	State     session.State
	Menu      []menu.Category
	MenuError string
}

// FormatTime renders seconds as MM:SS. Minutes are not wrapped at 60.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Render writes the screen for the current state
func Render(w io.Writer, v View) error {
	var b strings.Builder
	s := v.State

	switch s.Screen() {
	case session.ScreenStart:
		b.WriteString("🍽️ ยินดีต้อนรับสู่ Buffet Ordering System\n")
		b.WriteString("เวลาในการสั่งอาหาร: 1 ชั่วโมง 45 นาที\n")
		if s.Starting {
			b.WriteString("กำลังเริ่มต้น...\n")
		} else {
			b.WriteString("พิมพ์ start [หมายเลขโต๊ะ] เพื่อเริ่มสั่งอาหาร\n")
		}

	case session.ScreenCheckedOut:
		b.WriteString("✅ เช็คบิลเรียบร้อยแล้ว\n")
		b.WriteString("ขอบคุณที่ใช้บริการ\n")
		writeSummary(&b, s)

	case session.ScreenExpired:
		b.WriteString("⏰ หมดเวลาแล้ว\n")
		b.WriteString("เวลาในการสั่งอาหารหมดแล้ว\n")
		writeSummary(&b, s)

	case session.ScreenActive:
		b.WriteString("🍽️ Buffet Ordering System\n")
		if t := s.Order.Table(); t != "" {
			fmt.Fprintf(&b, "โต๊ะหมายเลข: %s\n", t)
		}
		label := timeLabel
		if s.LowTime() {
			label = lowTimeWarning
		}
		fmt.Fprintf(&b, "%s  %s\n", FormatTime(s.RemainingSeconds), label)

		b.WriteString("\n📋 เมนูอาหาร\n")
		if v.MenuError != "" {
			fmt.Fprintf(&b, "  %s\n", v.MenuError)
		}
		for _, cat := range v.Menu {
			fmt.Fprintf(&b, "  %s\n", cat.Name)
			for _, item := range cat.Items {
				fmt.Fprintf(&b, "    [%s] %s\n", item.ID, item.Name)
			}
		}

		b.WriteString("\n🛒 รายการที่สั่ง\n")
		if len(s.Order.Items) == 0 {
			b.WriteString("  ยังไม่มีรายการที่สั่ง กรุณาเลือกเมนูอาหาร\n")
		} else {
			for _, line := range s.Order.Items {
				fmt.Fprintf(&b, "  %s (%s) x%d\n", line.MenuItem.Name, line.MenuItem.Category, line.Quantity)
			}
			fmt.Fprintf(&b, "รายการทั้งหมด: %d รายการ\n", len(s.Order.Items))
		}
	}

	if s.LastError != "" {
		fmt.Fprintf(&b, "\n❌ %s\n", s.LastError)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSummary(b *strings.Builder, s session.State) {
	if t := s.Order.Table(); t != "" {
		fmt.Fprintf(b, "โต๊ะหมายเลข: %s\n", t)
	}
	fmt.Fprintf(b, "รายการทั้งหมด: %d รายการ\n", len(s.Order.Items))
	b.WriteString("พิมพ์ new เพื่อเริ่มออเดอร์ใหม่\n")
}
