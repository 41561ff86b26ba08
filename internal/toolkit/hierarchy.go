package toolkit

import "strings"

// WindowAncestor returns the window containing c, c itself if it is a window,
// or nil.
func WindowAncestor(c Component) Window {
	for cur := c; cur != nil; {
		if w, ok := cur.(Window); ok {
			return w
		}

		if p, ok := cur.(PopupMenu); ok && p.Invoker() != nil {
			cur = p.Invoker()
			continue
		}

		parent := cur.Parent()
		if parent == nil {
			return nil
		}

		cur = parent
	}

	return nil
}

// IsDescendant reports whether c is ancestor or lies beneath it. Popups are
// treated as children of their invoker.
func IsDescendant(c, ancestor Component) bool {
	for cur := c; cur != nil; {
		if cur == ancestor {
			return true
		}

		if p, ok := cur.(PopupMenu); ok && p.Invoker() != nil {
			cur = p.Invoker()
			continue
		}

		parent := cur.Parent()
		if parent == nil {
			return false
		}

		cur = parent
	}

	return false
}

// Walk visits root and its descendants depth first. Returning false from fn
// skips the children of the visited component.
func Walk(root Component, fn func(Component) bool) {
	if root == nil || !fn(root) {
		return
	}

	if c, ok := root.(Container); ok {
		for _, child := range c.Children() {
			Walk(child, fn)
		}
	}
}

// ScreenBounds returns the bounds of c in screen coordinates.
func ScreenBounds(c Component) Rect {
	return RectAt(c.LocationOnScreen(), c.Bounds().Size())
}

// Describe returns a short diagnostic label such as "Button[ok]".
func Describe(c Component) string {
	if c == nil {
		return "<none>"
	}

	var b strings.Builder

	b.WriteString(kindOf(c))
	b.WriteString("[")
	b.WriteString(c.Name())
	b.WriteString("]")

	return b.String()
}

func kindOf(c Component) string {
	if k, ok := c.(interface{ Kind() string }); ok {
		return k.Kind()
	}

	switch c.(type) {
	case Window:
		return "Window"
	case PopupMenu:
		return "PopupMenu"
	case Menu:
		return "Menu"
	case Container:
		return "Container"
	}

	return "Component"
}
